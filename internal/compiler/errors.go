package compiler

import "errors"

// Sentinel errors classifying fatal compile failures. Always wrapped with
// the affected presence name at the call site.
var (
	ErrInstall = errors.New("presencec: dependency install error")
	ErrBundle  = errors.New("presencec: bundler invocation error")
)
