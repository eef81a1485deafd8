package gqlauth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// OneTimeTokens issues and redeems single-use lifecycle credentials:
// account activation and password reset tokens. Redemption revokes the
// token's identifier, so a second redemption fails with INVALID_TOKEN.
// InspectOneTime runs the same validation without consuming, so handlers
// can refuse a redemption and leave the token usable.
type OneTimeTokens interface {
	IssueOneTime(ctx context.Context, userRef uuid.UUID, purpose TokenType) (string, error)
	InspectOneTime(ctx context.Context, credential string, purpose TokenType) (uuid.UUID, error)
	RedeemOneTime(ctx context.Context, credential string, purpose TokenType) (uuid.UUID, error)
}

// IssueOneTime signs a purpose-scoped single-use token.
func (ts *TokenServiceImpl) IssueOneTime(ctx context.Context, userRef uuid.UUID, purpose TokenType) (string, error) {
	if purpose != TokenTypeActivation && purpose != TokenTypeReset {
		return "", goerrors.New("purpose is not a one-time token type", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{"purpose": string(purpose)})
	}

	return ts.Issue(ctx, userRef, purpose)
}

// InspectOneTime validates a single-use token without consuming it. All
// expected failures (bad signature, expiry, wrong purpose, replay) surface
// as INVALID_TOKEN.
func (ts *TokenServiceImpl) InspectOneTime(ctx context.Context, credential string, purpose TokenType) (uuid.UUID, error) {
	claims, err := ts.checkOneTime(ctx, credential, purpose)
	if err != nil {
		return uuid.Nil, err
	}

	userRef, err := claims.UserRef()
	if err != nil {
		return uuid.Nil, NewAuthError(CodeInvalidToken)
	}

	return userRef, nil
}

// RedeemOneTime validates a single-use token and consumes it.
func (ts *TokenServiceImpl) RedeemOneTime(ctx context.Context, credential string, purpose TokenType) (uuid.UUID, error) {
	claims, err := ts.checkOneTime(ctx, credential, purpose)
	if err != nil {
		return uuid.Nil, err
	}

	userRef, err := claims.UserRef()
	if err != nil {
		return uuid.Nil, NewAuthError(CodeInvalidToken)
	}

	if err := ts.revocations.Revoke(ctx, claims.TokenID(), ts.revocationTTL(claims)); err != nil {
		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to consume one-time token")
	}

	return userRef, nil
}

func (ts *TokenServiceImpl) checkOneTime(ctx context.Context, credential string, purpose TokenType) (*TokenClaims, error) {
	claims, err := ts.parse(credential)
	if err != nil {
		return nil, NewAuthError(CodeInvalidToken)
	}

	if claims.TokenKind != purpose {
		return nil, NewAuthError(CodeInvalidToken)
	}

	revoked, err := ts.revocations.IsRevoked(ctx, claims.TokenID())
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "revocation lookup failed")
	}
	if revoked {
		return nil, NewAuthError(CodeInvalidToken)
	}

	return claims, nil
}
