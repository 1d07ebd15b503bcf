// Package srs implements the spaced-repetition memory model: the scheduler
// that turns a rating into a new memory state and interval, the
// retrievability estimate, rating previews, review ordering and interval
// formatting.
//
// All functions are pure. The scheduler's only state is its immutable
// Params, so one scheduler can be shared across goroutines and several
// parameter sets can be used side by side.
package srs
