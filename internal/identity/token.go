package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrTokenInvalid = errors.New("token_invalid")
	ErrTokenExpired = errors.New("token_expired")
)

const defaultTokenTTL = 14 * 24 * time.Hour

// Verifier checks HMAC-signed user tokens of the form
// keyID.base64(body).base64(signature). Multiple keys allow rotation.
type Verifier struct {
	keys map[string][]byte
	now  func() time.Time
}

func NewVerifier(keys map[string][]byte) *Verifier {
	return &Verifier{keys: keys, now: time.Now}
}

type tokenBody struct {
	UserID  string `json:"u"`
	Expires int64  `json:"e"`
}

// Mint signs a token for the given user under the given key. The server
// itself only verifies; minting is exposed for ops tooling and tests.
func (v *Verifier) Mint(keyID, userID string, ttl time.Duration) (string, error) {
	key, ok := v.keys[keyID]
	if !ok {
		return "", ErrTokenInvalid
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	body, err := json.Marshal(tokenBody{
		UserID:  userID,
		Expires: v.now().Add(ttl).Unix(),
	})
	if err != nil {
		return "", err
	}
	sig := sign(body, key)
	return keyID + "." +
		base64.RawURLEncoding.EncodeToString(body) + "." +
		base64.RawURLEncoding.EncodeToString(sig), nil
}

// Verify returns the user id carried by a valid, unexpired token.
func (v *Verifier) Verify(token string) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", ErrTokenInvalid
	}
	key, ok := v.keys[parts[0]]
	if !ok {
		return "", ErrTokenInvalid
	}
	body, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return "", ErrTokenInvalid
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return "", ErrTokenInvalid
	}
	if subtle.ConstantTimeCompare(sig, sign(body, key)) != 1 {
		return "", ErrTokenInvalid
	}
	var tb tokenBody
	if err := json.Unmarshal(body, &tb); err != nil {
		return "", ErrTokenInvalid
	}
	if tb.UserID == "" {
		return "", ErrTokenInvalid
	}
	if time.Unix(tb.Expires, 0).Before(v.now()) {
		return "", ErrTokenExpired
	}
	return tb.UserID, nil
}

func sign(body, key []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(body)
	return h.Sum(nil)
}
