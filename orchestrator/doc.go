// Package orchestrator runs one contract analysis request end to end.
//
// The pipeline is strictly sequential:
//
//	Start -> GateChecked -> FileStaged -> Analyzed -> Delivered | DeliveryFailed -> Cleaned -> Responded
//
// with the terminal failure states Denied, Unavailable, ClientError,
// GenerationFailed and InternalError. Authorization and input errors
// short-circuit before anything is staged. Once a file is staged it is
// released on every path, including a recovered panic. A delivery failure
// never changes a successful analysis into a failure; it is carried in
// Outcome.Delivery instead.
package orchestrator
