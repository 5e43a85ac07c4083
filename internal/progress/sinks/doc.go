// Package sinks implements progress consumers: a structured log sink and a
// sink that publishes events to a message topic.
package sinks
