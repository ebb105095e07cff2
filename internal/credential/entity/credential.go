package entity

import "time"

// Credential is the per-user second-factor record.
//
// At most one of PendingSecret and ConfirmedSecret drives behavior: a pending
// credential holds the unproven secret, a confirmed one holds the active
// secret. Secrets are base32-encoded TOTP seeds.
type Credential struct {
	UserID          string
	State           CredentialState
	PendingSecret   []byte
	ConfirmedSecret []byte
	UpdatedAt       time.Time
}

// ActiveSecret returns the confirmed secret when the credential is usable for
// validation, or nil otherwise.
func (c *Credential) ActiveSecret() []byte {
	if c == nil || c.State.Ensure() != CredentialStateConfirmed || len(c.ConfirmedSecret) == 0 {
		return nil
	}
	return c.ConfirmedSecret
}
