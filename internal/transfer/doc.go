// Package transfer runs one media download on a background goroutine,
// reports its progress as model.Event values and supports cooperative
// cancellation.
//
// A Transfer is single use. The observer passed to Start receives events in
// emission order from the worker goroutine and exactly one terminal event
// (Finished, Cancelled or Failed); callers that touch UI state from the
// observer must marshal back to their own goroutine.
package transfer
