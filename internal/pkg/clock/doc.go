// Package clock provides a tiny time abstraction.
//
// Production code should depend on the Clocker interface instead of calling
// time.Now() directly. One-time-password checks are pure functions of
// (secret, time), so injecting the clock is the difference between flaky and
// deterministic tests.
package clock
