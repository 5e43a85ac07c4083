// Package progress reports pipeline runs as a stream of events. A Hub buffers
// events on a background goroutine and hands them in batches to sinks such as
// the structured log or a Pub/Sub topic, so page workers never block on
// reporting.
package progress
