package types

import (
	tideerrors "github.com/tidesql/tidesql/internal/errors"
)

// ErrUnsupportedArith is returned when a kernel has no defined arithmetic for
// the operand kind (e.g. arithmetic on STRING); callers outside SAFE_*
// contexts propagate it as a Runtime error per §7.
var ErrUnsupportedArith = tideerrors.ErrUnsupported.New("arithmetic not defined for this value kind")
