package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

var errMissingSubject = errors.New("token missing subject claim")

// clerkVerifier validates Clerk-issued session JWTs against the instance JWKS.
type clerkVerifier struct {
	keyfunc  jwt.Keyfunc
	audience string
	issuer   string
}

func newClerkVerifier(cfg Config) (Verifier, func(), error) {
	if cfg.JWKSURL == "" {
		return nil, nil, fmt.Errorf("clerk JWKS URL is required")
	}

	jwks, err := keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
		RefreshInterval:   10 * time.Minute,
		RefreshRateLimit:  time.Minute,
		RefreshTimeout:    5 * time.Second,
		RefreshUnknownKID: true,
		// Refresh failures surface as verification errors on the next request.
		RefreshErrorHandler: func(error) {},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("load jwks: %w", err)
	}

	v := &clerkVerifier{keyfunc: jwks.Keyfunc, audience: cfg.Audience, issuer: cfg.Issuer}
	return v, jwks.EndBackground, nil
}

func (v *clerkVerifier) Verify(_ context.Context, token string) (AuthenticatedUser, error) {
	options := []jwt.ParserOption{
		jwt.WithLeeway(5 * time.Second),
		jwt.WithValidMethods([]string{"RS256"}),
	}
	if v.audience != "" {
		options = append(options, jwt.WithAudience(v.audience))
	}
	if v.issuer != "" {
		options = append(options, jwt.WithIssuer(v.issuer))
	}

	t, err := jwt.Parse(token, v.keyfunc, options...)
	if err != nil {
		return AuthenticatedUser{}, fmt.Errorf("token verification failed: %w", err)
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return AuthenticatedUser{}, errors.New("unexpected claims type")
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return AuthenticatedUser{}, errMissingSubject
	}

	sessionID, _ := claims["sid"].(string)

	var expiresAt int64
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Unix()
	}

	return AuthenticatedUser{
		ClerkID:   subject,
		SessionID: sessionID,
		ExpiresAt: expiresAt,
	}, nil
}
