package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// VerificationTTL is how long an emailed verification link stays valid.
const VerificationTTL = 24 * time.Hour

// NewVerificationToken returns a random token to email to the user and the
// digest to persist. Only the digest is stored.
func NewVerificationToken() (token, digest string) {
	token = strings.ReplaceAll(uuid.NewString(), "-", "")
	return token, HashVerificationToken(token)
}

// HashVerificationToken returns the stored digest for an emailed token.
func HashVerificationToken(token string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(token)))
	return hex.EncodeToString(sum[:])
}
