// Package sweep runs many consensus scenarios concurrently and collects
// their reports. It owns a worker pool, a certifier that validates a
// scenario's parameters before admitting it, and a batcher that groups
// finished reports for periodic summarization — the same three-stage
// shape the ordering service this package is adapted from uses for
// events, validation, and block batching.
package sweep
