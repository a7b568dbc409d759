package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken wraps every token rejection.
var ErrInvalidToken = errors.New("invalid token")

// ValidatorConfig selects the verification key. PublicKeyPEM (RS256) takes
// precedence over Secret (HS256).
type ValidatorConfig struct {
	PublicKeyPEM string
	Secret       string
	// Issuer, when set, must match the iss claim.
	Issuer string
}

// Validator verifies bearer tokens issued by the gateway. The finance service
// never issues tokens.
type Validator struct {
	publicKey *rsa.PublicKey
	secret    []byte
	issuer    string
}

func NewValidator(cfg ValidatorConfig) (*Validator, error) {
	v := &Validator{issuer: cfg.Issuer}
	switch {
	case cfg.PublicKeyPEM != "":
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("parse RSA public key: %w", err)
		}
		v.publicKey = key
	case cfg.Secret != "":
		v.secret = []byte(cfg.Secret)
	default:
		return nil, errors.New("token validation requires PublicKeyPEM or Secret")
	}
	return v, nil
}

// Validate parses tokenString and checks signature, expiry and issuer.
func (v *Validator) Validate(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.publicKey != nil {
		opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	} else {
		opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		if v.publicKey != nil {
			return v.publicKey, nil
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims, nil
}
