// Package prober provides the bounded-concurrency probing engine for sitepulse.
//
// This package is internal to sitepulse and performs the outbound HTTP checks.
// The main components are:
//
//   - [Client]: HTTP client wrapper that performs one probe per call and
//     captures every failure into a [Result]
//   - [Scheduler]: Dispatches [Task] values in input order over a bounded
//     pool of slots and collects their results
//   - [Failure]: Short diagnostic attached to failed results
//
// Users of the sitepulse library should not need to interact with this
// package directly. Configuration is done through the root sitepulse package.
package prober
