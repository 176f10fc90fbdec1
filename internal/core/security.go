// AngelaMos | 2026
// security.go

package core

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

var errMalformedHash = errors.New("malformed password hash")

type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
	keyLen  uint32
}

// passwordParams is what new hashes are written with. Stored hashes made
// with other parameters still verify and are upgraded on the next login.
var passwordParams = argonParams{
	memory:  64 * 1024,
	time:    1,
	threads: 4,
	keyLen:  32,
}

const (
	saltLength         = 16
	sessionTokenLength = 32
)

func (p argonParams) derive(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)
}

// HashPassword returns a PHC-formatted argon2id hash.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := passwordParams.derive(password, salt)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		passwordParams.memory,
		passwordParams.time,
		passwordParams.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func VerifyPassword(password, encodedHash string) (bool, error) {
	params, salt, key, err := parseHash(encodedHash)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(key, params.derive(password, salt)) == 1, nil
}

// VerifyPasswordWithRehash also returns a replacement hash when the stored
// one was made with outdated parameters. The replacement is empty when no
// upgrade is needed or it could not be produced.
func VerifyPasswordWithRehash(
	password, encodedHash string,
) (bool, string, error) {
	params, salt, key, err := parseHash(encodedHash)
	if err != nil {
		return false, "", err
	}
	if subtle.ConstantTimeCompare(key, params.derive(password, salt)) != 1 {
		return false, "", nil
	}
	if params == passwordParams {
		return true, "", nil
	}

	upgraded, err := HashPassword(password)
	if err != nil {
		return true, "", nil //nolint:nilerr // the login itself succeeded
	}
	return true, upgraded, nil
}

var placeholderHash = sync.OnceValue(func() string {
	hash, err := HashPassword("placeholder-for-unknown-accounts")
	if err != nil {
		return ""
	}
	return hash
})

// VerifyPasswordTimingSafe spends the same work whether or not the account
// exists. A nil or empty hash never verifies.
func VerifyPasswordTimingSafe(
	password string,
	encodedHash *string,
) (bool, string, error) {
	if encodedHash == nil || *encodedHash == "" {
		_, _ = VerifyPassword(password, placeholderHash()) //nolint:errcheck // work only
		return false, "", nil
	}
	return VerifyPasswordWithRehash(password, *encodedHash)
}

func parseHash(encodedHash string) (argonParams, []byte, []byte, error) {
	var p argonParams

	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" {
		return p, nil, nil, errMalformedHash
	}
	if parts[1] != "argon2id" {
		return p, nil, nil, fmt.Errorf("unsupported algorithm %q: %w", parts[1], errMalformedHash)
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, fmt.Errorf("argon2 version %q: %w", parts[2], errMalformedHash)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return p, nil, nil, fmt.Errorf("argon2 params %q: %w", parts[3], errMalformedHash)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, fmt.Errorf("decode salt: %w", errMalformedHash)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, fmt.Errorf("decode key: %w", errMalformedHash)
	}

	p.keyLen = uint32(len(key)) //nolint:gosec // argon2 keys are tiny
	return p, salt, key, nil
}

// NewSessionToken returns an opaque refresh token and the digest stored in
// refresh_tokens. Only the digest ever reaches the database.
func NewSessionToken() (token, digest string, err error) {
	raw := make([]byte, sessionTokenLength)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("generate session token: %w", err)
	}
	token = base64.RawURLEncoding.EncodeToString(raw)
	return token, HashToken(token), nil
}

// HashToken is the lookup key for a presented refresh token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
