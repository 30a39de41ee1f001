package planbuilder

import (
	"fmt"

	tideerrors "github.com/tidesql/tidesql/internal/errors"
)

func errColumnNotFound(name string) error {
	return tideerrors.ErrColumnNotFound.New(name)
}

func errAmbiguous(name string) error {
	return tideerrors.ErrAmbiguousName.New(name)
}

func errUnsupported(what string) error {
	return tideerrors.ErrUnsupported.New(what)
}

func errInvalid(format string, args ...any) error {
	return tideerrors.ErrInvalidQuery.New(fmt.Sprintf(format, args...))
}
