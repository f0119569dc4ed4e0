package catalog

import "errors"

// Sentinel error kinds, checked with errors.Is/errors.As. Wrapped with
// fmt.Errorf("...: %w", ...) at the call site to add context (names,
// paths) without losing the kind.
var (
	ErrNoPages             = errors.New("no pages found")
	ErrParse               = errors.New("parse error")
	ErrDuplicateFunction   = errors.New("duplicate function name")
	ErrUnknownFunction     = errors.New("unknown function")
	ErrMissingArgument     = errors.New("missing required argument")
	ErrUnknownArgument     = errors.New("unknown argument")
	ErrArgumentNotProvided = errors.New("argument not provided")
	ErrEnvVarMissing       = errors.New("environment variable not set")
	ErrBadTemplate         = errors.New("bad argument template")
	ErrPlatformUnsupported = errors.New("no command line for this platform")
)
