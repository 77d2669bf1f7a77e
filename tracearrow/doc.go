// Package tracearrow exports consensus.RunReport traces as Apache Arrow
// record batches, adapted from hierachain-engine/data (schema + JSON/Arrow
// conversion) and hierachain-engine/api's arrow_* files (IPC framing and a
// small TCP collector). It exists so a scenario sweep can hand its traces
// to an external analysis pipeline without carrying Go-specific types
// across that boundary.
package tracearrow
