package handlers

import (
	"context"
	"errors"

	"github.com/nimasrn/sms-portal/internal/model"
	"github.com/nimasrn/sms-portal/internal/repository"
	xhttp "github.com/nimasrn/sms-portal/pkg/http"
	"github.com/nimasrn/sms-portal/pkg/logger"
)

const (
	APIKeyHeader = "X-API-Key"
	userKey      = "handlers.user"
)

type UserLookup interface {
	GetByAPIKey(ctx context.Context, apiKey string) (*model.User, error)
}

// Auth resolves the caller from the X-API-Key header.
type Auth struct {
	users UserLookup
}

func NewAuth(users UserLookup) *Auth {
	return &Auth{users: users}
}

// User rejects requests without a known API key and binds the caller to
// the request.
func (a *Auth) User(next xhttp.RequestHandler) xhttp.RequestHandler {
	return func(ctx *xhttp.RequestCtx) {
		key := string(ctx.Request.Header.Peek(APIKeyHeader))
		if key == "" {
			writeError(ctx, xhttp.StatusUnauthorized, "missing API key")
			return
		}
		u, err := a.users.GetByAPIKey(ctx, key)
		if errors.Is(err, repository.ErrUserNotFound) {
			writeError(ctx, xhttp.StatusUnauthorized, "invalid API key")
			return
		}
		if err != nil {
			logger.Error("api key lookup failed", "error", err)
			writeError(ctx, xhttp.StatusInternalServerError, xhttp.StatusText(xhttp.StatusInternalServerError))
			return
		}
		ctx.SetUserValue(userKey, u)
		next(ctx)
	}
}

// Admin is User plus a role check.
func (a *Auth) Admin(next xhttp.RequestHandler) xhttp.RequestHandler {
	return a.User(func(ctx *xhttp.RequestCtx) {
		if !currentUser(ctx).IsAdmin() {
			writeError(ctx, xhttp.StatusForbidden, "admin role required")
			return
		}
		next(ctx)
	})
}

func currentUser(ctx *xhttp.RequestCtx) *model.User {
	u, _ := ctx.UserValue(userKey).(*model.User)
	return u
}
