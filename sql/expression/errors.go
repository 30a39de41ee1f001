package expression

import tideerrors "github.com/tidesql/tidesql/internal/errors"

func errColumnNotFound(name string) error {
	return tideerrors.ErrColumnNotFound.New(name)
}

var errUnresolvedWildcard = tideerrors.ErrInvalidQuery.New("unresolved wildcard reference")
