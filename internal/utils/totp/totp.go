// File: internal/utils/totp/totp.go
package totp

import (
	"bytes"
	"crypto/rand"
	"encoding/base32"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"image/png"
	"net/url"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	codeDigits = 6
	codePeriod = 30
	qrSizePx   = 256
)

var b32NoPadding = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateSecret returns a fresh 160-bit TOTP secret as unpadded base32.
func GenerateSecret() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate totp secret: %w", err)
	}
	return b32NoPadding.EncodeToString(buf), nil
}

// ProvisioningURI builds the otpauth:// URL that authenticator apps scan.
func ProvisioningURI(secret, accountName, issuer string) string {
	v := url.Values{}
	v.Set("secret", secret)
	v.Set("issuer", issuer)
	v.Set("algorithm", "SHA1")
	v.Set("digits", fmt.Sprintf("%d", codeDigits))
	v.Set("period", fmt.Sprintf("%d", codePeriod))

	u := url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + issuer + ":" + accountName,
		RawQuery: v.Encode(),
	}
	return u.String()
}

// RenderQRCode renders the provisioning URI as a PNG data URL suitable for
// embedding directly in an <img> tag.
func RenderQRCode(provisioningURI string) (string, error) {
	key, err := otp.NewKeyFromURL(provisioningURI)
	if err != nil {
		return "", fmt.Errorf("parse provisioning uri: %w", err)
	}
	img, err := key.Image(qrSizePx, qrSizePx)
	if err != nil {
		return "", fmt.Errorf("render qr code: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode qr png: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// VerifyCode checks a 6-digit code against the secret, accepting one time
// step of clock drift in either direction.
func VerifyCode(secret, code string) bool {
	ok, err := totp.ValidateCustom(strings.TrimSpace(code), secret, time.Now(), totp.ValidateOpts{
		Period:    codePeriod,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

// GenerateBackupCodes produces n single-use recovery codes, each 8 uppercase
// hex characters.
func GenerateBackupCodes(n int) ([]string, error) {
	codes := make([]string, 0, n)
	for i := 0; i < n; i++ {
		buf := make([]byte, 4)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generate backup code: %w", err)
		}
		codes = append(codes, strings.ToUpper(hex.EncodeToString(buf)))
	}
	return codes, nil
}

// FormatBackupCodes joins codes into the single-column storage form.
func FormatBackupCodes(codes []string) string {
	return strings.Join(codes, ",")
}

// ParseBackupCodes splits the stored form back into a list, dropping empty
// entries.
func ParseBackupCodes(stored string) []string {
	if stored == "" {
		return nil
	}
	parts := strings.Split(stored, ",")
	codes := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			codes = append(codes, p)
		}
	}
	return codes
}

// ConsumeBackupCode matches code against the list case-insensitively and
// returns the list with the matched entry removed. The second result is false
// when no entry matched.
func ConsumeBackupCode(codes []string, code string) ([]string, bool) {
	needle := strings.ToUpper(strings.TrimSpace(code))
	for i, c := range codes {
		if strings.ToUpper(c) == needle {
			remaining := make([]string, 0, len(codes)-1)
			remaining = append(remaining, codes[:i]...)
			remaining = append(remaining, codes[i+1:]...)
			return remaining, true
		}
	}
	return codes, false
}
