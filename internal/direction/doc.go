// Package direction tracks per-direction pipeline state.
//
// A direction is one region of the field processed through the facet
// pipeline. Each direction carries fixed calibration and imaging
// parameters plus mutable progress state: which operations have completed
// and whether the iterative selfcal loop is still converging. State is
// snapshotted to one JSON file per direction after every operation, so a
// restarted pipeline resumes from the last persisted point. Concurrent
// processing of distinct directions never contends; processing the same
// direction concurrently is not supported and must be serialized by the
// caller.
package direction
