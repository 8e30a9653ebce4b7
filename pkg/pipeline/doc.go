// Package pipeline wires processes into a pipeline and runs them.
//
// Steps are connected through channels from the channel package. A source writes into the output
// channel of its step, a transform reads the output of its parent and writes into its own, a sink or
// a comparison consumes its parents. Every channel connection is made while the pipeline is wired, so
// a channel closes only once all of its writers have returned.
//
// Run starts every step on its own goroutine and stops on the first error: the context of the other
// steps is cancelled and every blocked read or write returns. The error is wrapped with the name of
// the step that failed.
//
// Options implementing model.PipelineOption observe the pipeline. The measure package records the
// durations of every step and the drawer package renders the topology as a DOT graph.
package pipeline
