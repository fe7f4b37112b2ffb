package agent

import (
	"context"
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	platerrors "github.com/jonesrussell/north-cloud/brainhub/internal/platform/errors"
	infrajwt "github.com/jonesrussell/north-cloud/brainhub/internal/platform/jwt"
)

type ctxKey int

const (
	ctxKeyAccountID ctxKey = iota
	ctxKeyToken
)

// Principal is the caller a tool call is authorized as.
type Principal struct {
	AccountID int64
}

// WithAccountID stashes an already-resolved principal into ctx, the path
// taken by in-process completions where the caller's id is known up front.
func WithAccountID(ctx context.Context, accountID int64) context.Context {
	return context.WithValue(ctx, ctxKeyAccountID, accountID)
}

// WithToken stashes a bearer token into ctx, the path the MCP SSE surface
// takes: one token per connection, injected into every tool call.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxKeyToken, token)
}

// PrincipalResolver resolves the acting principal for a tool call, trusting
// an already-set accountId over re-deriving one from a token.
type PrincipalResolver struct {
	secret string
}

// NewPrincipalResolver builds a resolver that verifies fallback tokens with
// the same HMAC secret the inbound JWT middleware uses.
func NewPrincipalResolver(secret string) *PrincipalResolver {
	return &PrincipalResolver{secret: secret}
}

// Resolve returns the principal bound to ctx, or an AuthFailed error if
// neither an accountId nor a usable token is present.
func (r *PrincipalResolver) Resolve(ctx context.Context) (Principal, error) {
	if id, ok := ctx.Value(ctxKeyAccountID).(int64); ok {
		return Principal{AccountID: id}, nil
	}

	token, _ := ctx.Value(ctxKeyToken).(string)
	if token == "" {
		return Principal{}, platerrors.New(platerrors.AuthFailed, "no accountId or token in context")
	}

	claims := &infrajwt.Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(r.secret), nil
	})
	if err != nil || !parsed.Valid {
		return Principal{}, platerrors.Wrap(platerrors.AuthFailed, "invalid token", err)
	}

	accountID, err := strconv.ParseInt(claims.Sub, 10, 64)
	if err != nil {
		return Principal{}, platerrors.Wrap(platerrors.AuthFailed, "token subject is not an account id", err)
	}
	return Principal{AccountID: accountID}, nil
}
