// Package builtin contains the reconciliation stages of the merge pipeline.
//
// Merger folds a sequence of sources into one table with a conflict-aware
// outer join on the key. The remaining stages are transformer.Stage values
// applied to the merged table, in this order when enabled:
//
//   - NumericOnly: drop every non-numeric column except the key
//   - Collapse:    one row per key, first present value per column
//   - Coalesce:    fold provenance variants of a column into one
//   - Optimize:    store numeric columns in the narrowest lossless kind
//
// No stage mutates its input. Collapse and Coalesce are idempotent. Optimize
// is not: a float column it turns into int64 narrows further on a second
// pass.
package builtin
