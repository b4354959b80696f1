package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// Hasher derives privacy-preserving identifiers from client attributes.
// Raw IPs and user agents are never stored, only salted digests.
type Hasher struct {
	ipSalt     string
	deviceSalt string
}

func NewHasher(ipSalt, deviceSalt string) Hasher {
	return Hasher{ipSalt: ipSalt, deviceSalt: deviceSalt}
}

func hashValue(value, salt string) string {
	sum := sha256.Sum256([]byte(value + "|" + salt))
	return hex.EncodeToString(sum[:])
}

func (h Hasher) HashIP(ip string) string {
	return hashValue(strings.ToLower(strings.TrimSpace(ip)), h.ipSalt)
}

func (h Hasher) HashUserAgent(userAgent string) string {
	if userAgent == "" {
		return ""
	}
	return hashValue(strings.ToLower(strings.TrimSpace(userAgent)), h.deviceSalt)
}

// DeviceFingerprint combines stable request headers into one salted
// digest. An absent user agent yields "", which callers treat as
// "device dedup not possible".
func (h Hasher) DeviceFingerprint(userAgent, acceptLanguage, acceptEncoding string) string {
	if userAgent == "" {
		return ""
	}
	fingerprint := strings.Join([]string{
		strings.ToLower(strings.TrimSpace(userAgent)),
		strings.ToLower(strings.TrimSpace(acceptLanguage)),
		strings.ToLower(strings.TrimSpace(acceptEncoding)),
	}, "|")
	return hashValue(fingerprint, h.deviceSalt)
}

// GenerateToken returns a URL-safe secret of n random bytes.
func GenerateToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GenerateShortCode returns the short public identifier used in share
// URLs (4 random bytes, URL-safe).
func GenerateShortCode() (string, error) {
	return GenerateToken(4)
}
