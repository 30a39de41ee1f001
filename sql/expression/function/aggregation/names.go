package aggregation

import (
	"strings"

	"github.com/tidesql/tidesql/sql/types"
)

// aggregateNames is the full set of builtin aggregate/analytic function
// names New recognizes, kept in its own set so planbuilder can ask "is this
// call an aggregate" before it has built any arguments.
var aggregateNames = map[string]bool{
	"COUNT": true, "COUNTIF": true, "SUM": true, "SUMIF": true, "AVG": true, "AVGIF": true,
	"MIN": true, "MINIF": true, "MAX": true, "MAXIF": true, "ANY_VALUE": true,
	"LOGICAL_AND": true, "LOGICAL_OR": true, "BIT_AND": true, "BIT_OR": true, "BIT_XOR": true,
	"STRING_AGG": true, "ARRAY_AGG": true,
	"STDDEV": true, "STDDEV_SAMP": true, "STDDEV_POP": true,
	"VAR_SAMP": true, "VARIANCE": true, "VAR_POP": true,
	"CORR": true, "COVAR_SAMP": true, "COVAR_POP": true,
	"APPROX_COUNT_DISTINCT": true, "APPROX_TOP_COUNT": true, "APPROX_TOP_SUM": true,
}

// IsAggregateName reports whether name is one of the builtin aggregate
// functions New constructs an Accumulator for.
func IsAggregateName(name string) bool {
	return aggregateNames[strings.ToUpper(name)]
}

// ResultType computes the static result type of an aggregate call given its
// single argument's type (zero DataType if the call takes none, e.g.
// COUNT(*)), matching each accumulator's Finalize contract above.
func ResultType(name string, argType types.DataType) types.DataType {
	switch strings.ToUpper(name) {
	case "COUNT", "COUNTIF":
		return types.Int64
	case "SUM", "SUMIF":
		if argType.Kind == types.KindNumeric || argType.Kind == types.KindBigNumeric {
			return argType
		}
		return types.Float64Ty
	case "AVG", "AVGIF":
		return types.Float64Ty
	case "MIN", "MINIF", "MAX", "MAXIF", "ANY_VALUE":
		return argType
	case "LOGICAL_AND", "LOGICAL_OR":
		return types.Bool
	case "BIT_AND", "BIT_OR", "BIT_XOR":
		return argType
	case "STRING_AGG":
		return types.String
	case "ARRAY_AGG":
		return types.ArrayOf(argType)
	case "STDDEV", "STDDEV_SAMP", "STDDEV_POP", "VAR_SAMP", "VARIANCE", "VAR_POP", "CORR", "COVAR_SAMP", "COVAR_POP":
		return types.Float64Ty
	case "APPROX_COUNT_DISTINCT":
		return types.Int64
	case "APPROX_TOP_COUNT":
		return types.ArrayOf(types.StructOf(
			types.FieldType{Name: "value", Type: argType},
			types.FieldType{Name: "count", Type: types.Int64},
		))
	case "APPROX_TOP_SUM":
		return types.ArrayOf(types.StructOf(
			types.FieldType{Name: "value", Type: argType},
			types.FieldType{Name: "sum", Type: types.Float64Ty},
		))
	default:
		return types.DataType{}
	}
}
