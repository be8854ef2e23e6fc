// Package platform is an in-memory worker platform. It plays the part of the
// browser: it owns the page controller, the registrations with their
// active/installing/waiting slots, and each worker's lifecycle, and it
// delivers update-found, state-change and controller-change notifications
// synchronously on the goroutine that caused them.
//
// Every type here satisfies the matching port in package updater, so a
// Coordinator can run against it unchanged in the daemon and in tests.
package platform
