// Package datamap persists the artifact manifests passed between pipeline
// stages.
//
// A datamap is an ordered list of artifact paths with optional worker-host
// affinity, plus a parallel skip flag per entry. A stage declares its
// intended outputs by writing a datamap before the external tool runs, and
// corrects the record afterwards by toggling skip flags for artifacts that
// never materialized. Downstream stages treat a skipped entry as absent,
// never as an error.
//
// The on-disk form is one JSON object per line, so insertion order reads
// back stably and skip flags can be rewritten without disturbing paths or
// hosts. Rewrites go through a temp file and rename.
package datamap
