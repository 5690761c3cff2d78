package plcache

import "errors"

var (
	// ErrNilEngine is returned by New when no tabular engine is supplied.
	ErrNilEngine = errors.New("plcache: engine is required")

	// ErrInvalidSizeLimit is returned by New when the size limit string
	// cannot be parsed.
	ErrInvalidSizeLimit = errors.New("plcache: invalid size limit")

	// ErrInvalidSymlinkName is returned when a symlink filename (or the
	// result of a symlink name callback) is empty or whitespace-only.
	ErrInvalidSymlinkName = errors.New("plcache: invalid symlink name")

	// ErrBlobWrite wraps failures persisting a freshly computed result.
	// Nothing is registered on failure; a later call re-invokes the
	// wrapped function.
	ErrBlobWrite = errors.New("plcache: blob write failed")

	// ErrBlobRead wraps failures reading a blob that metadata and the
	// filesystem both reported present. It indicates external
	// interference with the cache directory, so it is surfaced rather
	// than treated as a miss.
	ErrBlobRead = errors.New("plcache: cached blob unreadable")
)
