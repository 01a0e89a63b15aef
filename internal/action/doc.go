// Package action prepares pipeline stage invocations for the external
// stage driver.
//
// An Action is one stage's unit of work: it derives a deterministic
// working directory, builds the input and output datamaps the stage will
// consume and produce, and emits a control file (parset) describing the
// invocation for the stage driver. After the driver has run the external
// tool, CollectResults corrects the output datamap's skip flags against
// observed filesystem reality.
//
// Actions are constructed fresh per invocation and never reused. Setup is
// idempotent: re-running it after an interrupted attempt rewrites the same
// datamaps and control files with identical content. Execution itself, and
// failure handling of the external tool, belong to the stage driver.
package action
