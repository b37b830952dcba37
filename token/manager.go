package token

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Method selects the signature algorithm. A Manager signs and verifies with
// exactly one method; tokens presented with any other algorithm are rejected.
type Method string

const (
	// MethodHS256 signs with an HMAC secret.
	MethodHS256 Method = "hs256"
	// MethodRS256 signs with an RSA private key, verifies with the public key.
	MethodRS256 Method = "rs256"
)

// Claim name carrying the entity type tag. The entity-id claim name is
// configurable (Config.EntityKeyName).
const typeTagClaim = "table_name"

var (
	// ErrExpired is returned by Decode for tokens past their exp claim.
	ErrExpired = errors.New("token expired")
	// ErrInvalidSignature is returned by Decode when the signature does not
	// verify under the configured key, or was produced by another algorithm.
	ErrInvalidSignature = errors.New("invalid token signature")
	// ErrMalformed is returned by Decode for tokens that are not parsable or
	// are missing required claims.
	ErrMalformed = errors.New("malformed token")
	// ErrMissingTypeTag is returned by Encode when no type tag is supplied.
	ErrMissingTypeTag = errors.New("type tag required")
)

// Config configures a Manager.
type Config struct {
	Method Method
	// SecretKey is the HMAC key (hs256).
	SecretKey []byte
	// PublicKey and PrivateKey are PEM-encoded RSA keys (rs256). A
	// verify-only Manager may omit PrivateKey.
	PublicKey  []byte
	PrivateKey []byte
	// EntityKeyName is the claim name carrying the entity's primary-key
	// value, e.g. "id" or "user_id".
	EntityKeyName string
	// ExpiryDays is the token lifetime in whole days.
	ExpiryDays int
}

// Claims is the decoded payload of a gate token.
type Claims struct {
	// TypeTag names the entity kind the token was issued for.
	TypeTag string
	// EntityID is the primary-key value. Numeric claims arrive as float64
	// after JSON decoding.
	EntityID any
	// ExpiresAt is the exp claim.
	ExpiresAt time.Time
}

// Manager encodes and decodes the locally signed credential. Immutable after
// NewManager; safe for concurrent use.
type Manager struct {
	config     Config
	rsaPrivate *rsa.PrivateKey
	rsaPublic  *rsa.PublicKey
}

// NewManager validates the configuration and parses key material once.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.EntityKeyName == "" {
		return nil, errors.New("entity key name required")
	}
	if cfg.ExpiryDays <= 0 {
		return nil, errors.New("invalid expiry configuration")
	}

	m := &Manager{config: cfg}

	switch cfg.Method {
	case MethodHS256:
		if len(cfg.SecretKey) == 0 {
			return nil, errors.New("hs256 requires a secret key")
		}
	case MethodRS256:
		if len(cfg.PublicKey) == 0 {
			return nil, errors.New("rs256 requires a public key")
		}
		pub, err := jwt.ParseRSAPublicKeyFromPEM(cfg.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("invalid rsa public key: %w", err)
		}
		m.rsaPublic = pub
		if len(cfg.PrivateKey) > 0 {
			priv, err := jwt.ParseRSAPrivateKeyFromPEM(cfg.PrivateKey)
			if err != nil {
				return nil, fmt.Errorf("invalid rsa private key: %w", err)
			}
			m.rsaPrivate = priv
		}
	default:
		return nil, errors.New("unsupported signing method")
	}

	return m, nil
}

// Encode signs a token carrying the type tag, the entity id under the
// configured claim name, and exp = now + ExpiryDays.
func (m *Manager) Encode(typeTag string, entityID any) (string, error) {
	if typeTag == "" {
		return "", ErrMissingTypeTag
	}

	claims := jwt.MapClaims{
		typeTagClaim:           typeTag,
		m.config.EntityKeyName: entityID,
		"exp":                  jwt.NewNumericDate(time.Now().AddDate(0, 0, m.config.ExpiryDays)),
	}

	tok := jwt.NewWithClaims(m.method(), claims)
	key, err := m.signKey()
	if err != nil {
		return "", err
	}
	return tok.SignedString(key)
}

// Decode verifies signature and expiry and extracts the payload. The expiry
// boundary is exact: no clock-skew leeway is granted.
func (m *Manager) Decode(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{m.method().Alg()}),
		jwt.WithExpirationRequired(),
	)

	var raw jwt.MapClaims
	tok, err := parser.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != m.method().Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return m.verifyKey()
	})
	if err != nil {
		return nil, classifyParseError(err)
	}

	raw, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return nil, ErrMalformed
	}

	typeTag, _ := raw[typeTagClaim].(string)
	if typeTag == "" {
		return nil, fmt.Errorf("%w: missing %s claim", ErrMalformed, typeTagClaim)
	}
	entityID, ok := raw[m.config.EntityKeyName]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s claim", ErrMalformed, m.config.EntityKeyName)
	}

	exp, err := raw.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrMalformed
	}

	return &Claims{
		TypeTag:   typeTag,
		EntityID:  entityID,
		ExpiresAt: exp.Time,
	}, nil
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable),
		errors.Is(err, jwt.ErrSignatureInvalid):
		return ErrInvalidSignature
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}

func (m *Manager) method() jwt.SigningMethod {
	switch m.config.Method {
	case MethodRS256:
		return jwt.SigningMethodRS256
	default:
		return jwt.SigningMethodHS256
	}
}

func (m *Manager) signKey() (interface{}, error) {
	switch m.config.Method {
	case MethodRS256:
		if m.rsaPrivate == nil {
			return nil, errors.New("manager is verify-only: no private key configured")
		}
		return m.rsaPrivate, nil
	default:
		return m.config.SecretKey, nil
	}
}

func (m *Manager) verifyKey() (interface{}, error) {
	switch m.config.Method {
	case MethodRS256:
		return m.rsaPublic, nil
	default:
		return m.config.SecretKey, nil
	}
}
