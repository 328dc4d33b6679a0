package auth

import (
	"bytes"
	"database/sql"
	"fmt"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/openfort-xyz/recoverykit/models"
	"github.com/openfort-xyz/recoverykit/shield"
)

const (
	TOTPIssuer = "recoverykit"
	TOTPDigits = otp.DigitsSix
	TOTPPeriod = 30
)

// TOTPSetup is returned to the client during enrollment.
type TOTPSetup struct {
	Secret      string `json:"secret"`
	QRCodePNG   []byte `json:"qr_code_png"`
	QRCodeURL   string `json:"qr_code_url"`
	ManualEntry string `json:"manual_entry"`
}

// GenerateTOTPSetup creates a new TOTP enrollment for a user and stores the
// secret encrypted under a key derived from the service master secret. The
// enrollment stays disabled until the first code verifies.
func GenerateTOTPSetup(db *sql.DB, master []byte, user *models.User) (*TOTPSetup, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      TOTPIssuer,
		AccountName: user.Email,
		Period:      TOTPPeriod,
		Digits:      TOTPDigits,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	qrPNG, err := renderQRCode(key.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to render provisioning QR code: %w", err)
	}

	encryptionKey, err := shield.DeriveServiceKey(master, shield.TOTPEncryptionContext)
	if err != nil {
		return nil, err
	}
	secretEncrypted, err := shield.SealShare([]byte(key.Secret()), encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt TOTP secret: %w", err)
	}

	if err := models.SetTOTPSecret(db, user.ID, secretEncrypted); err != nil {
		return nil, err
	}

	return &TOTPSetup{
		Secret:      key.Secret(),
		QRCodePNG:   qrPNG,
		QRCodeURL:   key.URL(),
		ManualEntry: formatManualEntry(key.Secret()),
	}, nil
}

// VerifyTOTPCode checks a code against a user's enrolled secret.
func VerifyTOTPCode(master []byte, user *models.User, code string) (bool, error) {
	if len(user.TOTPSecretEncrypted) == 0 {
		return false, fmt.Errorf("user has no TOTP enrollment")
	}

	encryptionKey, err := shield.DeriveServiceKey(master, shield.TOTPEncryptionContext)
	if err != nil {
		return false, err
	}
	secret, err := shield.OpenShare(user.TOTPSecretEncrypted, encryptionKey)
	if err != nil {
		return false, fmt.Errorf("failed to decrypt TOTP secret: %w", err)
	}

	return totp.Validate(code, string(secret)), nil
}

// renderQRCode encodes the provisioning URI as a 256x256 PNG.
func renderQRCode(uri string) ([]byte, error) {
	code, err := qr.Encode(uri, qr.M, qr.Auto)
	if err != nil {
		return nil, err
	}
	code, err = barcode.Scale(code, 256, 256)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, code); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// formatManualEntry groups the secret in blocks of four for typing by hand.
func formatManualEntry(secret string) string {
	var out []byte
	for i, r := range secret {
		if i > 0 && i%4 == 0 {
			out = append(out, ' ')
		}
		out = append(out, byte(r))
	}
	return string(out)
}
