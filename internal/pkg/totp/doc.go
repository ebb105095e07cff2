// Package totp wraps time-based one-time password generation and
// verification, including provisioning URIs and QR code rendering for
// authenticator app pairing.
package totp
