package handlers

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/nimasrn/sms-portal/internal/model"
	"github.com/nimasrn/sms-portal/internal/phone"
	"github.com/nimasrn/sms-portal/internal/services"
	xhttp "github.com/nimasrn/sms-portal/pkg/http"
	"github.com/nimasrn/sms-portal/pkg/logger"
)

// envelope is the body of every API response.
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	return json.Unmarshal(ctx.PostBody(), dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		logger.Error("failed to encode response", "error", err, "path", string(ctx.Path()))
		status = xhttp.StatusInternalServerError
		b = []byte(`{"status":"error","message":"internal error"}`)
	}
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeOK(ctx *xhttp.RequestCtx, status int, msg string, data any) {
	writeJSON(ctx, status, envelope{Status: model.StatusSuccess, Message: msg, Data: data})
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, envelope{Status: model.StatusError, Message: msg})
}

// writeServiceError maps a service error onto a status code. Internal
// failures are logged and reported without detail.
func writeServiceError(ctx *xhttp.RequestCtx, err error) {
	status := statusFor(err)
	if status >= xhttp.StatusInternalServerError {
		logger.Error("request failed", "path", string(ctx.Path()), "error", err)
		writeError(ctx, status, xhttp.StatusText(status))
		return
	}
	writeError(ctx, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrStaleValidation),
		errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrMessageTooLong),
		errors.Is(err, phone.ErrInvalidPhoneFormat),
		errors.Is(err, phone.ErrUnsupportedCountry):
		return xhttp.StatusBadRequest
	case errors.Is(err, services.ErrDuplicateContact):
		return xhttp.StatusConflict
	case errors.Is(err, services.ErrUserNotFound):
		return xhttp.StatusNotFound
	case errors.Is(err, services.ErrGateway):
		return xhttp.StatusBadGateway
	default:
		return xhttp.StatusInternalServerError
	}
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

// paramInt64 reads a numeric path parameter set by the router.
func paramInt64(ctx *xhttp.RequestCtx, name string) (int64, error) {
	v, _ := ctx.UserValue(name).(string)
	return strconv.ParseInt(v, 10, 64)
}

func parseTime(s string) (time.Time, error) {
	// RFC3339 or YYYY-MM-DD
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
