// Package updater detects a newly installed worker version alongside the one
// currently controlling the page and coordinates switching over to it.
//
// The Coordinator is the only stateful piece. It is structured into small
// files by concern:
//
//   - types.go: platform ports (Container, Registration, Worker), lifecycle
//     states and the activation message.
//   - config.go: Env, Option and package defaults.
//   - coordinator.go: Coordinator type, registration handling, Update, Close.
//   - watch.go: candidate watching (waiting / installing / update found).
//   - fanout.go: subscriber lists and isolated delivery.
//   - events.go, eventpub_memory.go, metrics.go: lifecycle event publishing.
//   - status_report.go: Snapshot/Status reporting helpers.
//
// Platform events may arrive on any goroutine. Coordinator state is guarded
// by a mutex and subscriber callbacks always run outside it, synchronously on
// the goroutine that delivered the triggering event.
package updater
