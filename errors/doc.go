// Package errors provides structured error types for the host-bundles library.
//
// Errors are categorized by Phase (where in the pipeline the error occurred)
// and Kind (error category). The Error type carries the offending bundle or
// entry name, the filesystem path involved, and a cause chain, so every
// failure is actionable without a stack trace.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseResolve, errors.KindResolution).
//		Bundle("duckdb_host").
//		Path(searchDir).
//		Detail("not found in any search path").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NotFound(errors.PhaseDiscover, "host.toml", configPath)
//	err := errors.Wrap(errors.PhaseParse, errors.KindParse, cause, "decode manifest")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
