package xhttp

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/sms-portal/pkg/logger"
	"github.com/valyala/fasthttp"
)

const slowThreshold = 2 * time.Second

const (
	SessionCookie = "sid"
	SessionHeader = "X-Session-Id"
	sessionKey    = "xhttp.session_id"
)

var skipPaths = []string{"/health", "/metrics"}

type MiddlewareFunc func(next RequestHandler) RequestHandler
type RequestCtx = fasthttp.RequestCtx
type RequestHandler = fasthttp.RequestHandler

// TimeoutMiddleware answers 408 once timeout elapses. The handler keeps
// running after the 408, so paths listed in exempt are served without a
// deadline: a client told its request timed out must not be able to retry
// work that is still in flight. Exempt paths are bounded by the server
// WriteTimeout instead.
func TimeoutMiddleware(timeout time.Duration, exempt ...string) MiddlewareFunc {
	return func(next RequestHandler) RequestHandler {
		limited := fasthttp.TimeoutWithCodeHandler(next, timeout, StatusText(StatusRequestTimeout), StatusRequestTimeout)
		return func(ctx *RequestCtx) {
			if slices.Contains(exempt, string(ctx.Path())) {
				next(ctx)
				return
			}
			limited(ctx)
		}
	}
}

func RecoverMiddleware(next RequestHandler) RequestHandler {
	return func(ctx *RequestCtx) {
		defer func() {
			if err := recover(); err != nil {
				ctx.Error(StatusText(StatusInternalServerError), StatusInternalServerError)
				logger.Error("[xhttp] panic recovered", "error", err, "path", string(ctx.Path()))
			}
		}()
		next(ctx)
	}
}

// SessionMiddleware binds every request to a session id taken from the
// X-Session-Id header or the sid cookie. A new id is issued as a cookie when
// neither is present.
func SessionMiddleware(next RequestHandler) RequestHandler {
	return func(ctx *RequestCtx) {
		sid := string(ctx.Request.Header.Peek(SessionHeader))
		if sid == "" {
			sid = string(ctx.Request.Header.Cookie(SessionCookie))
		}
		if sid == "" {
			sid = uuid.NewString()
			c := fasthttp.AcquireCookie()
			c.SetKey(SessionCookie)
			c.SetValue(sid)
			c.SetPath("/")
			c.SetHTTPOnly(true)
			c.SetSameSite(fasthttp.CookieSameSiteLaxMode)
			ctx.Response.Header.SetCookie(c)
			fasthttp.ReleaseCookie(c)
		}
		ctx.SetUserValue(sessionKey, sid)
		ctx.Response.Header.Set(SessionHeader, sid)
		next(ctx)
	}
}

// SessionID returns the id bound by SessionMiddleware, or "".
func SessionID(ctx *RequestCtx) string {
	sid, _ := ctx.UserValue(sessionKey).(string)
	return sid
}

func RequestLoggerMiddleware(next RequestHandler) RequestHandler {
	return func(ctx *RequestCtx) {
		path := string(ctx.Path())
		if shouldSkip(path) {
			next(ctx)
			return
		}

		start := time.Now()
		next(ctx)
		latency := time.Since(start)
		status := ctx.Response.StatusCode()

		kv := []any{
			"status", status,
			"method", string(ctx.Method()),
			"path", path,
			"latency", latency.String(),
			"bytes_in", len(ctx.PostBody()),
			"bytes_out", len(ctx.Response.Body()),
			"ip", ctx.RemoteIP().String(),
			"request_id", requestID(ctx),
		}
		switch {
		case status >= 500:
			logger.Error("http_request", kv...)
		case status >= 400 || latency > slowThreshold:
			logger.Warn("http_request", kv...)
		default:
			logger.Info("http_request", kv...)
		}
	}
}

func shouldSkip(p string) bool {
	for _, sp := range skipPaths {
		if strings.HasPrefix(p, sp) {
			return true
		}
	}
	return false
}

func requestID(ctx *RequestCtx) string {
	return string(ctx.Request.Header.Peek("X-Request-Id"))
}
