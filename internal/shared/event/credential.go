package event

const CredentialEnrolledDestination string = "credential_enrolled"
const CredentialConfirmedDestination string = "credential_confirmed"

// CredentialEnrolledMessage announces that a pending credential was created.
// It carries only the user ID, never secret material.
type CredentialEnrolledMessage struct {
	UserID string `json:"user_id"`
}

// CredentialConfirmedMessage announces that a credential became active.
type CredentialConfirmedMessage struct {
	UserID string `json:"user_id"`
}
