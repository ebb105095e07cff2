package totp

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"
)

// qrCodeSize is the width and height in pixels of rendered pairing images.
const qrCodeSize = 256

// Engine defines the contract for TOTP operations.
type Engine interface {
	// Generate creates a secret and provisioning URI for an account name.
	Generate(accountName string) (secret string, uri string, err error)
	// QRCode renders a provisioning URI as a PNG image.
	QRCode(uri string) ([]byte, error)
	// Validate checks whether a code is valid at the given time, accepting
	// codes from up to skew periods before or after.
	Validate(code, secret string, at time.Time, skew uint) bool
	// GenerateCode creates a TOTP code for the given secret and time.
	GenerateCode(secret string, at time.Time) (string, error)
}

// TOTP implements Engine using the Time-based One-Time Password algorithm.
//
// The verification window is supplied per call rather than fixed at
// construction because confirmation and validation use different windows.
type TOTP struct {
	issuer string
	period uint
	digits otp.Digits
}

// New constructs a TOTP instance with sensible defaults.
//
// If digits is not 6 or 8, it falls back to 6 digits. If period is 0, it uses
// the common 30-second period.
func New(issuer string, period uint, digits otp.Digits) *TOTP {
	if digits != otp.DigitsSix && digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}

	if period == 0 {
		period = 30
	}

	return &TOTP{
		issuer: issuer,
		period: period,
		digits: digits,
	}
}

// Generate creates a secret and provisioning URI for an account name.
func (o *TOTP) Generate(accountName string) (secret string, uri string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      o.issuer,
		AccountName: accountName,
		Period:      o.period,
		SecretSize:  20, // RFC 4226/6238 recommendation
		Digits:      o.digits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", "", err
	}

	return key.Secret(), key.URL(), nil
}

// QRCode renders a provisioning URI as a PNG image.
func (o *TOTP) QRCode(uri string) ([]byte, error) {
	return qrcode.Encode(uri, qrcode.Medium, qrCodeSize)
}

// Validate checks whether a code is valid at the given time.
//
// A skew of 0 accepts only the current period; a skew of 1 also accepts the
// immediately preceding and following periods.
func (o *TOTP) Validate(code, secret string, at time.Time, skew uint) bool {
	rv, err := totp.ValidateCustom(code, secret, at, totp.ValidateOpts{
		Period:    o.period,
		Skew:      skew,
		Digits:    o.digits,
		Algorithm: otp.AlgorithmSHA1,
	})

	return rv && err == nil
}

// GenerateCode creates a TOTP code for the given secret and time.
func (o *TOTP) GenerateCode(secret string, at time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    o.period,
		Digits:    o.digits,
		Algorithm: otp.AlgorithmSHA1,
	})
}
