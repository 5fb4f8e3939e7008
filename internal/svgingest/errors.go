package svgingest

import "fmt"

// MaxFileSize bounds the SVG source this package will read, guarding
// against runaway memory use on a malformed or hostile input.
const MaxFileSize = 1 << 20 // 1 MiB

// MaxTagDepth bounds recursion into nested container tags, mirroring the
// reference parser's fixed tag stack.
const MaxTagDepth = 1024

// InputParseError reports a malformed SVG document. Reason is a short,
// stable tag identifying what went wrong; Detail carries the offending
// text or position for diagnostics.
type InputParseError struct {
	Reason string
	Detail string
}

func (e *InputParseError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("svgingest: %s", e.Reason)
	}
	return fmt.Sprintf("svgingest: %s: %s", e.Reason, e.Detail)
}

func errTooLarge(n int) error {
	return &InputParseError{Reason: "file exceeds size cap", Detail: fmt.Sprintf("%d bytes > %d", n, MaxFileSize)}
}

func errStackOverflow(level int) error {
	return &InputParseError{Reason: "tag nesting too deep", Detail: fmt.Sprintf("level %d", level)}
}

func errMissingD() error {
	return &InputParseError{Reason: "path element missing d attribute"}
}

func errShortPair(offset int) error {
	return &InputParseError{Reason: "truncated coordinate pair", Detail: fmt.Sprintf("offset %d", offset)}
}

func errUnknownOp(op byte) error {
	return &InputParseError{Reason: "unrecognized path opcode", Detail: string(op)}
}

func errUnclosedTag(name string) error {
	return &InputParseError{Reason: "tag not properly closed", Detail: name}
}
