package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/nimasrn/sms-portal/internal/model"
	xhttp "github.com/nimasrn/sms-portal/pkg/http"
	"github.com/nimasrn/sms-portal/pkg/logger"
)

type NotificationService interface {
	SendWelcome(ctx context.Context, userID int64) (*model.SendResult, error)
	SendSenderApproved(ctx context.Context, userID int64) (*model.SendResult, error)
}

type AdminHandler struct {
	svc NotificationService
}

func RegisterAdminRoutes(g *router.Group, h *AdminHandler, auth *Auth) {
	g.POST("/admin/users/{id}/welcome", auth.Admin(h.SendWelcome))
	g.POST("/admin/users/{id}/approve-sender", auth.Admin(h.ApproveSender))
}

func NewAdminHandler(svc NotificationService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

func (h *AdminHandler) SendWelcome(ctx *xhttp.RequestCtx) {
	h.notify(ctx, "welcome", h.svc.SendWelcome)
}

func (h *AdminHandler) ApproveSender(ctx *xhttp.RequestCtx) {
	h.notify(ctx, "sender_approved", h.svc.SendSenderApproved)
}

func (h *AdminHandler) notify(ctx *xhttp.RequestCtx, kind string, send func(context.Context, int64) (*model.SendResult, error)) {
	id, err := paramInt64(ctx, "id")
	if err != nil || id <= 0 {
		writeError(ctx, xhttp.StatusBadRequest, "invalid user id")
		return
	}
	res, err := send(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	logger.Info("admin notification", "kind", kind, "user_id", id, "admin_id", currentUser(ctx).ID, "status", res.Status)
	writeJSON(ctx, xhttp.StatusOK, envelope{Status: res.Status, Message: res.Message, Data: res})
}
