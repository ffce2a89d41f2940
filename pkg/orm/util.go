package orm

import (
	cerrors "github.com/hanfei1991/instancesync/pkg/errors"
)

// IsNotFoundError reports whether err means the row does not exist.
func IsNotFoundError(err error) bool {
	return cerrors.Is(err, cerrors.ErrMetaEntryNotFound)
}
