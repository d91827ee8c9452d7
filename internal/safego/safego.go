// Package safego launches background goroutines that survive panics.
package safego

import "log/slog"

// Go runs fn in a new goroutine under the given name. A panic inside fn is
// recovered and logged with the name instead of crashing the process. Every
// fire-and-forget goroutine (the metrics listener, the API listener) goes
// through here so a panic never silently kills the work without a trace.
func Go(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("recovered panic in background goroutine", "goroutine", name, "panic", r)
			}
		}()
		fn()
	}()
}
