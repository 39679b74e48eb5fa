package api

import (
	"errors"
	"fmt"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"
)

// AuthConfig selects how bearer tokens are verified. A non-empty LocalSecret
// switches to HS256 verification for local development and tests; otherwise
// tokens must be RS256 signed by a key from JWKS.
type AuthConfig struct {
	JWKS        *keyfunc.JWKS
	Audience    string
	Issuer      string
	LocalSecret string
}

// Session is the verified caller of a request.
type Session struct {
	UserID string
	Token  string
}

// Auth validates session tokens.
type Auth struct {
	cfg    AuthConfig
	parser *jwt.Parser
	key    jwt.Keyfunc
}

func NewAuth(cfg AuthConfig) *Auth {
	a := &Auth{cfg: cfg}
	if cfg.LocalSecret != "" {
		secret := []byte(cfg.LocalSecret)
		a.parser = jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		a.key = func(*jwt.Token) (any, error) { return secret, nil }
		return a
	}
	a.parser = jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	a.key = func(t *jwt.Token) (any, error) {
		if cfg.JWKS == nil {
			return nil, errors.New("jwks not configured")
		}
		return cfg.JWKS.Keyfunc(t)
	}
	return a
}

// Authenticate verifies the Authorization header and returns the caller
// together with the raw token, which is forwarded to the summarizer.
func (a *Auth) Authenticate(h string) (Session, error) {
	token, err := bearerTokenFromString(h)
	if err != nil {
		return Session{}, err
	}
	var claims jwt.RegisteredClaims
	if _, err := a.parser.ParseWithClaims(token, &claims, a.key); err != nil {
		return Session{}, err
	}
	if err := a.checkClaims(claims); err != nil {
		return Session{}, err
	}
	return Session{UserID: claims.Subject, Token: token}, nil
}

// checkClaims covers what the parser leaves optional. Expiry, not-before and
// issued-at are already validated by ParseWithClaims when present.
func (a *Auth) checkClaims(c jwt.RegisteredClaims) error {
	switch {
	case c.ExpiresAt == nil:
		return errors.New("token has no expiry")
	case a.cfg.Audience != "" && !c.VerifyAudience(a.cfg.Audience, true):
		return fmt.Errorf("invalid audience %v", c.Audience)
	case a.cfg.Issuer != "" && !c.VerifyIssuer(a.cfg.Issuer, true):
		return fmt.Errorf("invalid issuer %q", c.Issuer)
	case c.Subject == "":
		return errors.New("missing sub")
	}
	return nil
}
