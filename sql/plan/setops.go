package plan

import (
	"fmt"

	"github.com/tidesql/tidesql/sql"
)

// setOp factors the shared shape of Union/Intersect/Except: an ordered list
// of same-schema branches plus an ALL flag (§3 "Union{all}", etc.).
type setOp struct {
	Branches []sql.Node
	All      bool
}

func (s setOp) Children() []sql.Node { return s.Branches }
func (s setOp) Schema() sql.Schema {
	if len(s.Branches) == 0 {
		return nil
	}
	return s.Branches[0].Schema()
}
func (s setOp) Resolved() bool {
	for _, b := range s.Branches {
		if !b.Resolved() {
			return false
		}
	}
	return true
}

type Union struct{ setOp }

func NewUnion(all bool, branches ...sql.Node) *Union { return &Union{setOp{branches, all}} }
func (u *Union) WithChildren(children ...sql.Node) (sql.Node, error) {
	return &Union{setOp{children, u.All}}, nil
}
func (u *Union) String() string { return fmt.Sprintf("Union(all=%v, %d branches)", u.All, len(u.Branches)) }

type Intersect struct{ setOp }

func NewIntersect(all bool, branches ...sql.Node) *Intersect { return &Intersect{setOp{branches, all}} }
func (i *Intersect) WithChildren(children ...sql.Node) (sql.Node, error) {
	return &Intersect{setOp{children, i.All}}, nil
}
func (i *Intersect) String() string {
	return fmt.Sprintf("Intersect(all=%v, %d branches)", i.All, len(i.Branches))
}

type Except struct{ setOp }

func NewExcept(all bool, branches ...sql.Node) *Except { return &Except{setOp{branches, all}} }
func (e *Except) WithChildren(children ...sql.Node) (sql.Node, error) {
	return &Except{setOp{children, e.All}}, nil
}
func (e *Except) String() string {
	return fmt.Sprintf("Except(all=%v, %d branches)", e.All, len(e.Branches))
}
