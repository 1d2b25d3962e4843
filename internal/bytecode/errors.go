package bytecode

import "errors"

// Sentinel errors for the three fatal decode categories §7 names
// (unsupported version, embedded error payload, malformed constant tag),
// so callers can errors.Is against them instead of matching strings.
var (
	ErrUnsupportedVersion = errors.New("bytecode: unsupported version")
	ErrEmbeddedError      = errors.New("bytecode: module carries an embedded error payload")
	ErrMalformedConstant  = errors.New("bytecode: malformed constant tag")

	errUnexpectedEOF = errors.New("unexpected end of bytecode")
)
