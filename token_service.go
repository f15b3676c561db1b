package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenServiceImpl implements the TokenService interface with two
// independent HS256 signers, one per token kind.
type TokenServiceImpl struct {
	access   tokenSigner
	refresh  tokenSigner
	issuer   string
	audience jwt.ClaimStrings
	logger   Logger
}

type tokenSigner struct {
	kind       TokenKind
	signingKey []byte
	ttl        time.Duration
}

// NewTokenService creates a TokenService from the configured signing
// secrets and lifetimes.
func NewTokenService(cfg Config, logger Logger) TokenService {
	if logger == nil {
		logger = defLogger{}
	}

	return &TokenServiceImpl{
		access: tokenSigner{
			kind:       TokenKindAccess,
			signingKey: []byte(cfg.GetAccessSigningKey()),
			ttl:        cfg.GetAccessTokenDuration(),
		},
		refresh: tokenSigner{
			kind:       TokenKindRefresh,
			signingKey: []byte(cfg.GetRefreshSigningKey()),
			ttl:        cfg.GetRefreshTokenDuration(),
		},
		issuer:   cfg.GetIssuer(),
		audience: cfg.GetAudience(),
		logger:   logger,
	}
}

// IssueAccessToken mints a short-lived signed token for the subject.
func (ts *TokenServiceImpl) IssueAccessToken(id uuid.UUID, email string) (string, error) {
	return ts.sign(ts.access, id, email)
}

// IssueRefreshToken mints a long-lived signed token for the subject.
func (ts *TokenServiceImpl) IssueRefreshToken(id uuid.UUID, email string) (string, error) {
	return ts.sign(ts.refresh, id, email)
}

// ValidateAccessToken verifies signature and expiry against the access
// signing secret and returns the structured claims.
func (ts *TokenServiceImpl) ValidateAccessToken(raw string) (*TokenClaims, error) {
	return ts.validate(ts.access, raw)
}

// ValidateRefreshToken verifies signature and expiry against the
// refresh signing secret. It does not consult the stored refresh hash;
// revocation is enforced by the engine.
func (ts *TokenServiceImpl) ValidateRefreshToken(raw string) (*TokenClaims, error) {
	return ts.validate(ts.refresh, raw)
}

func (ts *TokenServiceImpl) sign(signer tokenSigner, id uuid.UUID, email string) (string, error) {
	now := time.Now()

	var aud jwt.ClaimStrings
	if len(ts.audience) > 0 {
		aud = make(jwt.ClaimStrings, len(ts.audience))
		copy(aud, ts.audience)
	}

	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   id.String(),
			Audience:  aud,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(signer.ttl)),
		},
		Email: email,
		Kind:  signer.kind,
	}

	ensureTokenID(&claims.RegisteredClaims)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(signer.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

func (ts *TokenServiceImpl) validate(signer tokenSigner, raw string) (*TokenClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(raw, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return signer.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenService validate could not decode claims")
		return nil, ErrTokenMalformed
	}

	// Every token this service mints carries a kind claim. A token
	// without one was minted elsewhere and gets rejected even when the
	// signature checks out.
	if claims.Kind != signer.kind {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}
