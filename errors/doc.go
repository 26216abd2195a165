// Package errors provides structured error types for the bcreader library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries decoding context: the enclosing block, the record code
// and the bit offset at which the violation was detected.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseParse, errors.KindDataError).
//		Block("type").
//		Record(8).
//		Detail("pointee index %d out of range", idx).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.EOF(errors.PhaseRead, pos)
//	err := errors.Wrap(errors.PhaseLoad, errors.KindInvalidInput, cause, "open module")
//
// All errors implement the standard error interface and support errors.Is/As.
// The Err* sentinels match an error of the same Kind in any phase:
//
//	if errors.Is(err, errors.ErrDataError) { ... }
package errors
