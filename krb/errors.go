package krb

import "fmt"

// FatalError marks a decode condition ReadDocument cannot recover from:
// bad magic, a truncated read, overlapping section offsets, an unknown
// resource format, or a COMPRESSED flag (compression is out of scope).
// Callers should abort on this, not just log and continue.
type FatalError struct {
	msg string
	err error
}

func (e *FatalError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("krb: %s: %v", e.msg, e.err)
	}
	return fmt.Sprintf("krb: %s", e.msg)
}

func (e *FatalError) Unwrap() error { return e.err }

func fatalf(format string, args ...any) error {
	return &FatalError{msg: fmt.Sprintf(format, args...)}
}

func fatalWrap(msg string, err error) error {
	return &FatalError{msg: msg, err: err}
}

// WarnError marks a recoverable decode condition — version mismatch, a
// count/table-size disagreement, missing App element under HasApp, or
// animation data present with no detailed parser. ReadDocument appends
// these to Document.Warnings instead of aborting.
type WarnError struct {
	msg string
}

func (e *WarnError) Error() string { return fmt.Sprintf("krb: %s", e.msg) }

func warnf(format string, args ...any) error {
	return &WarnError{msg: fmt.Sprintf(format, args...)}
}
