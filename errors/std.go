package errors

import stderrors "errors"

// As mirrors the standard library so callers need a single import.
func As(err error, target any) bool { return stderrors.As(err, target) }

// Is mirrors the standard library so callers need a single import.
func Is(err, target error) bool { return stderrors.Is(err, target) }
