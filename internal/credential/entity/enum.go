package entity

type CredentialState int16

const (
	// CredentialStateUnknown is mean state is not known / not set.
	CredentialStateUnknown CredentialState = 0

	// CredentialStatePending mean a secret was minted but the user has not
	// proven possession yet. Pending credentials never satisfy validation.
	CredentialStatePending CredentialState = 1

	// CredentialStateConfirmed mean the user proved possession and the
	// credential is active for second-factor checks.
	CredentialStateConfirmed CredentialState = 2
)

func (cs CredentialState) String() string {
	switch cs {
	case CredentialStatePending:
		return "Pending"
	case CredentialStateConfirmed:
		return "Confirmed"
	default:
		return "Unknown"
	}
}

func (cs CredentialState) Ensure() CredentialState {
	switch cs {
	case CredentialStatePending:
		return CredentialStatePending
	case CredentialStateConfirmed:
		return CredentialStateConfirmed
	default:
		return CredentialStateUnknown
	}
}
