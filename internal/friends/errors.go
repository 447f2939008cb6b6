package friends

import "errors"

var (
	// ErrDirectoryUnavailable indicates no backing friend directory is configured.
	ErrDirectoryUnavailable = errors.New("friend directory unavailable")
)
