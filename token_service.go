package gqlauth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenService issues, verifies, refreshes, and revokes the signed
// credentials that bind a request to a user identity.
type TokenService interface {
	Issue(ctx context.Context, userRef uuid.UUID, tokenType TokenType) (string, error)
	Verify(ctx context.Context, credential string) (Identity, error)
	Resolve(ctx context.Context, credential string) (Identity, *Credential, error)
	Refresh(ctx context.Context, refreshCredential string) (string, error)
	Revoke(ctx context.Context, credential string) error
}

// TokenServiceImpl implements TokenService. Signature and expiry checks
// are stateless; revocation consults the shared RevocationStore and every
// successful verification resolves the user against account storage so
// permission or archival changes take effect without waiting for expiry.
type TokenServiceImpl struct {
	signingKey  []byte
	issuer      string
	audience    jwt.ClaimStrings
	accessTTL   time.Duration
	refreshTTL  time.Duration
	ttlByType   map[TokenType]time.Duration
	store       UserStore
	revocations RevocationStore
	logger      Logger
	now         func() time.Time
}

var (
	_ TokenService  = (*TokenServiceImpl)(nil)
	_ OneTimeTokens = (*TokenServiceImpl)(nil)
)

// NewTokenService creates a TokenService backed by the given account
// storage and revocation set.
func NewTokenService(cfg Config, store UserStore, revocations RevocationStore) *TokenServiceImpl {
	if revocations == nil {
		revocations = NewMemoryRevocationStore()
	}

	return &TokenServiceImpl{
		signingKey:  []byte(cfg.GetSigningKey()),
		issuer:      cfg.GetIssuer(),
		audience:    cfg.GetAudience(),
		accessTTL:   cfg.GetAccessTokenTTL(),
		refreshTTL:  cfg.GetRefreshTokenTTL(),
		ttlByType: map[TokenType]time.Duration{
			TokenTypeAccess:     cfg.GetAccessTokenTTL(),
			TokenTypeRefresh:    cfg.GetRefreshTokenTTL(),
			TokenTypeActivation: cfg.GetActivationTokenTTL(),
			TokenTypeReset:      cfg.GetResetTokenTTL(),
		},
		store:       store,
		revocations: revocations,
		logger:      defLogger{},
		now:         time.Now,
	}
}

// WithLogger overrides the logger.
func (ts *TokenServiceImpl) WithLogger(logger Logger) *TokenServiceImpl {
	if logger != nil {
		ts.logger = logger
	}
	return ts
}

// WithClock injects a custom clock (useful for expiry tests).
func (ts *TokenServiceImpl) WithClock(clock func() time.Time) *TokenServiceImpl {
	if clock != nil {
		ts.now = clock
	}
	return ts
}

// Issue signs a credential of the given type for the user reference. The
// expiry window depends on the type: access tokens are short-lived, refresh
// tokens long-lived, lifecycle tokens in between.
func (ts *TokenServiceImpl) Issue(_ context.Context, userRef uuid.UUID, tokenType TokenType) (string, error) {
	ttl, ok := ts.ttlByType[tokenType]
	if !ok {
		return "", goerrors.New("unknown token type", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{"type": string(tokenType)})
	}

	now := ts.now()
	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   userRef.String(),
			Audience:  ts.audienceCopy(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UID:       userRef.String(),
		TokenKind: tokenType,
	}

	ensureTokenID(&claims.RegisteredClaims)

	return ts.signClaims(claims)
}

// Verify checks the credential's signature, expiry, and revocation status,
// then resolves the user reference against live account storage. Expected
// failures come back as AuthError values: EXPIRED, INVALID, REVOKED,
// USER_NOT_FOUND, and UNAUTHENTICATED for archived accounts.
func (ts *TokenServiceImpl) Verify(ctx context.Context, credential string) (Identity, error) {
	identity, _, err := ts.Resolve(ctx, credential)
	return identity, err
}

// Resolve is Verify plus the verified Credential descriptor, which the
// execution boundary stashes in the request context for TokenRequired.
func (ts *TokenServiceImpl) Resolve(ctx context.Context, credential string) (Identity, *Credential, error) {
	claims, err := ts.parse(credential)
	if err != nil {
		return AnonymousIdentity(), nil, err
	}

	revoked, err := ts.revocations.IsRevoked(ctx, claims.TokenID())
	if err != nil {
		return AnonymousIdentity(), nil, goerrors.Wrap(err, goerrors.CategoryInternal, "revocation lookup failed")
	}
	if revoked {
		return AnonymousIdentity(), nil, NewAuthError(CodeRevoked)
	}

	userRef, err := claims.UserRef()
	if err != nil {
		return AnonymousIdentity(), nil, NewAuthError(CodeInvalid)
	}

	identity, err := ts.resolveIdentity(ctx, userRef)
	if err != nil {
		return AnonymousIdentity(), nil, err
	}

	return identity, &Credential{
		TokenID:   claims.TokenID(),
		UserRef:   userRef,
		Type:      claims.TokenKind,
		IssuedAt:  claims.Issued(),
		ExpiresAt: claims.Expires(),
	}, nil
}

// Refresh verifies a refresh credential and mints a new access token for
// the same user. The refresh token is not rotated.
func (ts *TokenServiceImpl) Refresh(ctx context.Context, refreshCredential string) (string, error) {
	claims, err := ts.parse(refreshCredential)
	if err != nil {
		return "", err
	}

	if claims.TokenKind != TokenTypeRefresh {
		return "", NewAuthError(CodeInvalid)
	}

	revoked, err := ts.revocations.IsRevoked(ctx, claims.TokenID())
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "revocation lookup failed")
	}
	if revoked {
		return "", NewAuthError(CodeRevoked)
	}

	userRef, err := claims.UserRef()
	if err != nil {
		return "", NewAuthError(CodeInvalid)
	}

	// account must still authenticate before we mint fresh credentials
	if _, err := ts.resolveIdentity(ctx, userRef); err != nil {
		return "", err
	}

	return ts.Issue(ctx, userRef, TokenTypeAccess)
}

// Revoke adds the credential's identifier to the revocation set. Expired
// tokens revoke cleanly and revoking twice is a no-op.
func (ts *TokenServiceImpl) Revoke(ctx context.Context, credential string) error {
	claims, err := ts.parseUnsafe(credential)
	if err != nil {
		return err
	}

	ttl := ts.revocationTTL(claims)

	if err := ts.revocations.Revoke(ctx, claims.TokenID(), ttl); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to record revocation")
	}

	return nil
}

func (ts *TokenServiceImpl) resolveIdentity(ctx context.Context, userRef uuid.UUID) (Identity, error) {
	user, err := ts.store.GetUser(ctx, userRef)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return AnonymousIdentity(), NewAuthError(CodeUserNotFound)
		}
		return AnonymousIdentity(), goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve user")
	}

	if user == nil {
		return AnonymousIdentity(), NewAuthError(CodeUserNotFound)
	}

	// archival always wins over credential validity
	if user.IsArchived() {
		return AnonymousIdentity(), NewAuthError(CodeUnauthenticated)
	}

	permissions, err := ts.store.GetPermissions(ctx, userRef)
	if err != nil {
		return AnonymousIdentity(), goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve permissions")
	}

	return IdentityFromUser(user, permissions), nil
}

func (ts *TokenServiceImpl) parse(credential string) (*TokenClaims, error) {
	return ts.parseWith(credential)
}

// parseUnsafe skips expiry validation so stale tokens can still be revoked.
func (ts *TokenServiceImpl) parseUnsafe(credential string) (*TokenClaims, error) {
	return ts.parseWith(credential, jwt.WithoutClaimsValidation())
}

func (ts *TokenServiceImpl) parseWith(credential string, extra ...jwt.ParserOption) (*TokenClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 3+len(extra))
	parserOptions = append(parserOptions, jwt.WithTimeFunc(ts.now))
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}
	parserOptions = append(parserOptions, extra...)

	token, err := jwt.ParseWithClaims(credential, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			return nil, NewAuthError(CodeExpired)
		}
		return nil, NewAuthError(CodeInvalid)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenService could not decode or validate claims")
		return nil, NewAuthError(CodeInvalid)
	}

	return claims, nil
}

func (ts *TokenServiceImpl) signClaims(claims *TokenClaims) (string, error) {
	if claims == nil {
		return "", goerrors.New("claims must not be nil", goerrors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

func (ts *TokenServiceImpl) revocationTTL(claims *TokenClaims) time.Duration {
	expires := claims.Expires()
	if expires.IsZero() {
		return 0
	}

	remaining := expires.Sub(ts.now())
	if remaining <= 0 {
		// keep just long enough to shadow clock skew
		return time.Minute
	}

	return remaining
}

func (ts *TokenServiceImpl) audienceCopy() jwt.ClaimStrings {
	if len(ts.audience) == 0 {
		return nil
	}
	aud := make(jwt.ClaimStrings, len(ts.audience))
	copy(aud, ts.audience)
	return aud
}
