package function

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tidesql/tidesql/sql"
	"github.com/tidesql/tidesql/sql/expression"
	"github.com/tidesql/tidesql/sql/types"
)

func newDecimalValue(kind types.Kind, d decimal.Decimal) types.Value {
	if kind == types.KindBigNumeric {
		return types.NewBigNumeric(d)
	}
	return types.NewNumeric(d)
}

func init() {
	registerNullHandling()
	registerString()
	registerNumeric()
	registerDateTime()
	registerArray()
	registerConditionalSafe()
}

func fixedType(dt types.DataType) func([]types.DataType) (types.DataType, error) {
	return func([]types.DataType) (types.DataType, error) { return dt, nil }
}

// registerNullHandling wires COALESCE, IFNULL, NULLIF, IF — grounded on the
// teacher's function/coalesce, function/ifnull, function/if directories.
func registerNullHandling() {
	Default.Register("COALESCE", func(argTypes []types.DataType) (expression.ScalarFn, error) {
		rt := types.String
		for _, t := range argTypes {
			if t.Kind != types.KindNull {
				rt = t
				break
			}
		}
		return &simpleFn{
			name:    "COALESCE",
			resType: fixedType(rt),
			eval: func(ctx *sql.Context, args []types.Value) (types.Value, error) {
				for _, a := range args {
					if !a.IsNull() {
						return a, nil
					}
				}
				return types.Null, nil
			},
		}, nil
	})

	Default.Register("IFNULL", func(argTypes []types.DataType) (expression.ScalarFn, error) {
		rt := types.String
		if len(argTypes) > 0 {
			rt = argTypes[0]
		}
		return &simpleFn{
			name:    "IFNULL",
			resType: fixedType(rt),
			eval: func(ctx *sql.Context, args []types.Value) (types.Value, error) {
				if len(args) != 2 {
					return types.Value{}, fmt.Errorf("IFNULL takes 2 arguments")
				}
				if !args[0].IsNull() {
					return args[0], nil
				}
				return args[1], nil
			},
		}, nil
	})

	Default.Register("NULLIF", func(argTypes []types.DataType) (expression.ScalarFn, error) {
		rt := types.String
		if len(argTypes) > 0 {
			rt = argTypes[0]
		}
		return &simpleFn{
			name:    "NULLIF",
			resType: fixedType(rt),
			eval: func(ctx *sql.Context, args []types.Value) (types.Value, error) {
				if len(args) != 2 {
					return types.Value{}, fmt.Errorf("NULLIF takes 2 arguments")
				}
				if types.Equal(args[0], args[1]) {
					return types.Null, nil
				}
				return args[0], nil
			},
		}, nil
	})

	Default.Register("IF", func(argTypes []types.DataType) (expression.ScalarFn, error) {
		rt := types.String
		if len(argTypes) > 1 {
			rt = argTypes[1]
		}
		return &simpleFn{
			name:    "IF",
			resType: fixedType(rt),
			eval: func(ctx *sql.Context, args []types.Value) (types.Value, error) {
				if len(args) != 3 {
					return types.Value{}, fmt.Errorf("IF takes 3 arguments")
				}
				if !args[0].IsNull() && args[0].AsBool() {
					return args[1], nil
				}
				return args[2], nil
			},
		}, nil
	})
}

// registerString wires LENGTH/CHAR_LENGTH, UPPER, LOWER, CONCAT,
// STARTS_WITH, ENDS_WITH, REPLACE, SPLIT — grounded on the teacher's
// function/length, function/upper, function/concat, function/split dirs.
func registerString() {
	Default.Register("LENGTH", simpleStringToInt("LENGTH", func(s string) int64 { return int64(len(s)) }))
	Default.Register("CHAR_LENGTH", simpleStringToInt("CHAR_LENGTH", func(s string) int64 { return int64(len([]rune(s))) }))

	Default.Register("UPPER", simpleStringToString("UPPER", strings.ToUpper))
	Default.Register("LOWER", simpleStringToString("LOWER", strings.ToLower))
	Default.Register("LTRIM", simpleStringToString("LTRIM", func(s string) string { return strings.TrimLeft(s, " ") }))
	Default.Register("RTRIM", simpleStringToString("RTRIM", func(s string) string { return strings.TrimRight(s, " ") }))
	Default.Register("REVERSE", simpleStringToString("REVERSE", reverseString))

	Default.Register("CONCAT", func(argTypes []types.DataType) (expression.ScalarFn, error) {
		return &simpleFn{
			name:    "CONCAT",
			resType: fixedType(types.String),
			eval: func(ctx *sql.Context, args []types.Value) (types.Value, error) {
				var sb strings.Builder
				for _, a := range args {
					if a.IsNull() {
						return types.Null, nil
					}
					sb.WriteString(valueAsText(a))
				}
				return types.NewString(sb.String()), nil
			},
		}, nil
	})

	Default.Register("STARTS_WITH", func(argTypes []types.DataType) (expression.ScalarFn, error) {
		return &simpleFn{
			name:    "STARTS_WITH",
			resType: fixedType(types.Bool),
			eval: func(ctx *sql.Context, args []types.Value) (types.Value, error) {
				if args[0].IsNull() || args[1].IsNull() {
					return types.Null, nil
				}
				return types.NewBool(strings.HasPrefix(args[0].AsString(), args[1].AsString())), nil
			},
		}, nil
	})

	Default.Register("ENDS_WITH", func(argTypes []types.DataType) (expression.ScalarFn, error) {
		return &simpleFn{
			name:    "ENDS_WITH",
			resType: fixedType(types.Bool),
			eval: func(ctx *sql.Context, args []types.Value) (types.Value, error) {
				if args[0].IsNull() || args[1].IsNull() {
					return types.Null, nil
				}
				return types.NewBool(strings.HasSuffix(args[0].AsString(), args[1].AsString())), nil
			},
		}, nil
	})

	Default.Register("REPLACE", func(argTypes []types.DataType) (expression.ScalarFn, error) {
		return &simpleFn{
			name:    "REPLACE",
			resType: fixedType(types.String),
			eval: func(ctx *sql.Context, args []types.Value) (types.Value, error) {
				for _, a := range args {
					if a.IsNull() {
						return types.Null, nil
					}
				}
				return types.NewString(strings.ReplaceAll(args[0].AsString(), args[1].AsString(), args[2].AsString())), nil
			},
		}, nil
	})

	Default.Register("SPLIT", func(argTypes []types.DataType) (expression.ScalarFn, error) {
		return &simpleFn{
			name:    "SPLIT",
			resType: fixedType(types.ArrayOf(types.String)),
			eval: func(ctx *sql.Context, args []types.Value) (types.Value, error) {
				if args[0].IsNull() {
					return types.Null, nil
				}
				sep := ","
				if len(args) > 1 && !args[1].IsNull() {
					sep = args[1].AsString()
				}
				parts := strings.Split(args[0].AsString(), sep)
				vals := make([]types.Value, len(parts))
				for i, p := range parts {
					vals[i] = types.NewString(p)
				}
				return types.NewArray(types.String, vals), nil
			},
		}, nil
	})
}

func simpleStringToInt(name string, f func(string) int64) Builder {
	return func(argTypes []types.DataType) (expression.ScalarFn, error) {
		return &simpleFn{
			name:    name,
			resType: fixedType(types.Int64),
			eval: func(ctx *sql.Context, args []types.Value) (types.Value, error) {
				if args[0].IsNull() {
					return types.Null, nil
				}
				return types.NewInt64(f(args[0].AsString())), nil
			},
		}, nil
	}
}

func simpleStringToString(name string, f func(string) string) Builder {
	return func(argTypes []types.DataType) (expression.ScalarFn, error) {
		return &simpleFn{
			name:    name,
			resType: fixedType(types.String),
			eval: func(ctx *sql.Context, args []types.Value) (types.Value, error) {
				if args[0].IsNull() {
					return types.Null, nil
				}
				return types.NewString(f(args[0].AsString())), nil
			},
		}, nil
	}
}

func reverseString(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

func valueAsText(v types.Value) string {
	if v.Kind() == types.KindString {
		return v.AsString()
	}
	return v.String()
}

// registerNumeric wires ABS, SIGN, ROUND, FLOOR, CEIL, MOD, GREATEST,
// LEAST — grounded on the teacher's function/absval, function/ceil_round_floor,
// function/mod dirs. Per §1 scope note, numeric precision edge cases are not
// chased beyond float64/decimal's native behavior.
func registerNumeric() {
	Default.Register("ABS", func(argTypes []types.DataType) (expression.ScalarFn, error) {
		rt := types.Float64Ty
		if len(argTypes) > 0 {
			rt = argTypes[0]
		}
		return &simpleFn{
			name:    "ABS",
			resType: fixedType(rt),
			eval: func(ctx *sql.Context, args []types.Value) (types.Value, error) {
				return applyNumericUnary(args[0], math.Abs, func(d decimal.Decimal) decimal.Decimal { return d.Abs() })
			},
		}, nil
	})

	Default.Register("SIGN", func(argTypes []types.DataType) (expression.ScalarFn, error) {
		return &simpleFn{
			name:    "SIGN",
			resType: fixedType(types.Int64),
			eval: func(ctx *sql.Context, args []types.Value) (types.Value, error) {
				if args[0].IsNull() {
					return types.Null, nil
				}
				f, err := asFloat(args[0])
				if err != nil {
					return types.Value{}, err
				}
				switch {
				case f > 0:
					return types.NewInt64(1), nil
				case f < 0:
					return types.NewInt64(-1), nil
				default:
					return types.NewInt64(0), nil
				}
			},
		}, nil
	})

	Default.Register("FLOOR", numericRounder("FLOOR", math.Floor, func(d decimal.Decimal) decimal.Decimal { return d.Floor() }))
	Default.Register("CEIL", numericRounder("CEIL", math.Ceil, func(d decimal.Decimal) decimal.Decimal { return d.Ceil() }))
	Default.Register("CEILING", numericRounder("CEILING", math.Ceil, func(d decimal.Decimal) decimal.Decimal { return d.Ceil() }))
	Default.Register("ROUND", func(argTypes []types.DataType) (expression.ScalarFn, error) {
		rt := types.Float64Ty
		if len(argTypes) > 0 {
			rt = argTypes[0]
		}
		return &simpleFn{
			name:    "ROUND",
			resType: fixedType(rt),
			eval: func(ctx *sql.Context, args []types.Value) (types.Value, error) {
				if args[0].IsNull() {
					return types.Null, nil
				}
				places := int32(0)
				if len(args) > 1 && !args[1].IsNull() {
					places = int32(args[1].AsInt64())
				}
				if args[0].Kind() == types.KindNumeric || args[0].Kind() == types.KindBigNumeric {
					return newDecimalValue(args[0].Kind(), args[0].AsDecimal().Round(places)), nil
				}
				f, err := asFloat(args[0])
				if err != nil {
					return types.Value{}, err
				}
				mult := math.Pow(10, float64(places))
				return types.NewFloat64(math.Round(f*mult) / mult), nil
			},
		}, nil
	})

	Default.Register("MOD", func(argTypes []types.DataType) (expression.ScalarFn, error) {
		return &simpleFn{
			name:    "MOD",
			resType: fixedType(types.Int64),
			eval: func(ctx *sql.Context, args []types.Value) (types.Value, error) {
				if args[0].IsNull() || args[1].IsNull() {
					return types.Null, nil
				}
				b := args[1].AsInt64()
				if b == 0 {
					return types.Null, nil
				}
				return types.NewInt64(args[0].AsInt64() % b), nil
			},
		}, nil
	})

	Default.Register("GREATEST", extremumFn("GREATEST", 1))
	Default.Register("LEAST", extremumFn("LEAST", -1))
}

func numericRounder(name string, f func(float64) float64, d func(decimal.Decimal) decimal.Decimal) Builder {
	return func(argTypes []types.DataType) (expression.ScalarFn, error) {
		rt := types.Float64Ty
		if len(argTypes) > 0 {
			rt = argTypes[0]
		}
		return &simpleFn{
			name:    name,
			resType: fixedType(rt),
			eval: func(ctx *sql.Context, args []types.Value) (types.Value, error) {
				return applyNumericUnary(args[0], f, d)
			},
		}, nil
	}
}

func applyNumericUnary(v types.Value, f func(float64) float64, d func(decimal.Decimal) decimal.Decimal) (types.Value, error) {
	if v.IsNull() {
		return types.Null, nil
	}
	switch v.Kind() {
	case types.KindNumeric, types.KindBigNumeric:
		return newDecimalValue(v.Kind(), d(v.AsDecimal())), nil
	default:
		x, err := asFloat(v)
		if err != nil {
			return types.Value{}, err
		}
		return types.NewFloat64(f(x)), nil
	}
}

func asFloat(v types.Value) (float64, error) {
	switch v.Kind() {
	case types.KindInt64:
		return float64(v.AsInt64()), nil
	case types.KindFloat64:
		return v.AsFloat64(), nil
	case types.KindNumeric, types.KindBigNumeric:
		f, _ := v.AsDecimal().Float64()
		return f, nil
	default:
		return 0, fmt.Errorf("cannot interpret %s as a number", v.Kind())
	}
}

func extremumFn(name string, sign int) Builder {
	return func(argTypes []types.DataType) (expression.ScalarFn, error) {
		rt := types.Float64Ty
		if len(argTypes) > 0 {
			rt = argTypes[0]
		}
		return &simpleFn{
			name:    name,
			resType: fixedType(rt),
			eval: func(ctx *sql.Context, args []types.Value) (types.Value, error) {
				var best *types.Value
				for i := range args {
					if args[i].IsNull() {
						return types.Null, nil
					}
					if best == nil || types.Compare(args[i], *best, types.NullsFirst)*sign > 0 {
						v := args[i]
						best = &v
					}
				}
				if best == nil {
					return types.Null, nil
				}
				return *best, nil
			},
		}, nil
	}
}

// registerDateTime wires CURRENT_DATE/TIMESTAMP/DATETIME — grounded on the
// teacher's function/date dir; uses time.Now() as the teacher's sql.Context
// clock field does, since the core doesn't own a real clock abstraction.
func registerDateTime() {
	Default.Register("CURRENT_TIMESTAMP", func([]types.DataType) (expression.ScalarFn, error) {
		return &simpleFn{
			name:    "CURRENT_TIMESTAMP",
			resType: fixedType(types.Timestamp),
			eval: func(ctx *sql.Context, args []types.Value) (types.Value, error) {
				return types.NewTimestamp(time.Now()), nil
			},
		}, nil
	})
	Default.Register("CURRENT_DATE", func([]types.DataType) (expression.ScalarFn, error) {
		return &simpleFn{
			name:    "CURRENT_DATE",
			resType: fixedType(types.Date),
			eval: func(ctx *sql.Context, args []types.Value) (types.Value, error) {
				return types.NewDate(time.Now().UTC()), nil
			},
		}, nil
	})
	Default.Register("CURRENT_DATETIME", func([]types.DataType) (expression.ScalarFn, error) {
		return &simpleFn{
			name:    "CURRENT_DATETIME",
			resType: fixedType(types.DateTime),
			eval: func(ctx *sql.Context, args []types.Value) (types.Value, error) {
				return types.NewDateTime(time.Now().UTC()), nil
			},
		}, nil
	})
}

// registerArray wires ARRAY_LENGTH, ARRAY_TO_STRING — grounded on the
// teacher's function/arraylength dir.
func registerArray() {
	Default.Register("ARRAY_LENGTH", func([]types.DataType) (expression.ScalarFn, error) {
		return &simpleFn{
			name:    "ARRAY_LENGTH",
			resType: fixedType(types.Int64),
			eval: func(ctx *sql.Context, args []types.Value) (types.Value, error) {
				if args[0].IsNull() {
					return types.Null, nil
				}
				return types.NewInt64(int64(len(args[0].AsArray()))), nil
			},
		}, nil
	})
	Default.Register("ARRAY_TO_STRING", func([]types.DataType) (expression.ScalarFn, error) {
		return &simpleFn{
			name:    "ARRAY_TO_STRING",
			resType: fixedType(types.String),
			eval: func(ctx *sql.Context, args []types.Value) (types.Value, error) {
				if args[0].IsNull() {
					return types.Null, nil
				}
				sep := ""
				if len(args) > 1 && !args[1].IsNull() {
					sep = args[1].AsString()
				}
				parts := make([]string, 0, len(args[0].AsArray()))
				for _, v := range args[0].AsArray() {
					if v.IsNull() {
						continue
					}
					parts = append(parts, valueAsText(v))
				}
				return types.NewString(strings.Join(parts, sep)), nil
			},
		}, nil
	})
}

// registerConditionalSafe wires SAFE_DIVIDE/SAFE_ADD/SAFE_MULTIPLY/
// SAFE_SUBTRACT — grounded on the teacher's function/safe_* naming pattern,
// mirroring §4.1 "SAFE_DIVIDE, SAFE_ADD, etc. convert overflow/NaN to Null".
func registerConditionalSafe() {
	safeArith := func(name string, op func(a, b float64) (float64, bool)) Builder {
		return func(argTypes []types.DataType) (expression.ScalarFn, error) {
			return &simpleFn{
				name:    name,
				resType: fixedType(types.Float64Ty),
				eval: func(ctx *sql.Context, args []types.Value) (types.Value, error) {
					if args[0].IsNull() || args[1].IsNull() {
						return types.Null, nil
					}
					a, err := asFloat(args[0])
					if err != nil {
						return types.Null, nil
					}
					b, err := asFloat(args[1])
					if err != nil {
						return types.Null, nil
					}
					r, ok := op(a, b)
					if !ok || math.IsNaN(r) || math.IsInf(r, 0) {
						return types.Null, nil
					}
					return types.NewFloat64(r), nil
				},
			}, nil
		}
	}
	Default.Register("SAFE_DIVIDE", safeArith("SAFE_DIVIDE", func(a, b float64) (float64, bool) {
		if b == 0 {
			return 0, false
		}
		return a / b, true
	}))
	Default.Register("SAFE_ADD", safeArith("SAFE_ADD", func(a, b float64) (float64, bool) { return a + b, true }))
	Default.Register("SAFE_SUBTRACT", safeArith("SAFE_SUBTRACT", func(a, b float64) (float64, bool) { return a - b, true }))
	Default.Register("SAFE_MULTIPLY", safeArith("SAFE_MULTIPLY", func(a, b float64) (float64, bool) { return a * b, true }))
}
