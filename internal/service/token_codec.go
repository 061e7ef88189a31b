package service

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"lumiere/internal/model"
)

var errMalformedToken = errors.New("malformed token")

// TokenCodec turns claims into a transportable string and back. Decode
// checks structure only; expiry and revocation are the service's concern.
type TokenCodec interface {
	Encode(claims model.Claims) (string, error)
	Decode(token string) (*model.Claims, error)
}

// OpaqueCodec encodes claims as base64 JSON with no signature. Integrity
// rests entirely on the server-side hash lookup.
type OpaqueCodec struct{}

func NewOpaqueCodec() OpaqueCodec {
	return OpaqueCodec{}
}

func (OpaqueCodec) Encode(claims model.Claims) (string, error) {
	payload := claimsPayload(claims, "user_id")

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode token claims: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func (OpaqueCodec) Decode(token string) (*model.Claims, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, errMalformedToken
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var payload map[string]any
	if err := dec.Decode(&payload); err != nil || payload == nil {
		return nil, errMalformedToken
	}

	return claimsFromPayload(payload, "user_id")
}

// JWTCodec signs claims with HS256. Expired tokens still decode so the
// service can evict them from the store.
type JWTCodec struct {
	secret []byte
}

func NewJWTCodec(secret string) *JWTCodec {
	return &JWTCodec{secret: []byte(secret)}
}

func (c *JWTCodec) Encode(claims model.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims(claimsPayload(claims, "sub")))

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (c *JWTCodec) Decode(token string) (*model.Claims, error) {
	parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
		jwt.WithJSONNumber(),
	)
	if err != nil || !parsed.Valid {
		return nil, errMalformedToken
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errMalformedToken
	}

	return claimsFromPayload(mapClaims, "sub")
}

// claimsPayload lays extras down first so the subject and timestamps can
// never be overridden by them.
func claimsPayload(claims model.Claims, subjectKey string) map[string]any {
	payload := make(map[string]any, len(claims.Extra)+3)
	for k, v := range claims.Extra {
		payload[k] = v
	}
	payload[subjectKey] = claims.UserID
	payload["iat"] = claims.IssuedAt.Unix()
	payload["exp"] = claims.ExpiresAt.Unix()
	return payload
}

func claimsFromPayload(payload map[string]any, subjectKey string) (*model.Claims, error) {
	subject, ok := payload[subjectKey].(string)
	if !ok || subject == "" {
		return nil, errMalformedToken
	}

	exp, ok := unixSeconds(payload["exp"])
	if !ok {
		return nil, errMalformedToken
	}

	claims := &model.Claims{
		UserID:    subject,
		ExpiresAt: time.Unix(exp, 0).UTC(),
		Extra:     map[string]any{},
	}
	if iat, ok := unixSeconds(payload["iat"]); ok {
		claims.IssuedAt = time.Unix(iat, 0).UTC()
	}

	for k, v := range payload {
		switch k {
		case subjectKey, "iat", "exp":
			continue
		}
		claims.Extra[k] = v
	}

	return claims, nil
}

func unixSeconds(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return int64(f), true
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}
