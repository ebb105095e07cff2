// Package messaging provides a broker-agnostic publisher abstraction.
//
// The service only emits lifecycle events, so the surface is publish-only.
package messaging
