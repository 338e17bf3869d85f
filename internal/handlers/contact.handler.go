package handlers

import (
	"bytes"
	"context"

	"github.com/fasthttp/router"
	"github.com/nimasrn/sms-portal/internal/model"
	"github.com/nimasrn/sms-portal/internal/services"
	xhttp "github.com/nimasrn/sms-portal/pkg/http"
)

type ContactService interface {
	AddContact(ctx context.Context, ownerID int64, req model.ContactCreateRequest) (*model.Contact, error)
	ImportContacts(ctx context.Context, ownerID int64, group string, rows services.RowReader) (*model.ImportResult, error)
	Groups(ctx context.Context, ownerID int64) ([]string, error)
}

type ContactHandler struct {
	svc ContactService
}

func RegisterContactRoutes(g *router.Group, h *ContactHandler, auth *Auth) {
	g.POST("/contacts", auth.User(h.AddContact))
	g.POST("/contacts/import", auth.User(h.ImportContacts))
	g.GET("/contacts/groups", auth.User(h.ListGroups))
}

func NewContactHandler(svc ContactService) *ContactHandler {
	return &ContactHandler{svc: svc}
}

func (h *ContactHandler) AddContact(ctx *xhttp.RequestCtx) {
	var req model.ContactCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	c, err := h.svc.AddContact(ctx, currentUser(ctx).ID, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeOK(ctx, xhttp.StatusCreated, "contact added", c)
}

// ImportContacts takes a CSV body of name,phone rows. The target group is
// the group query parameter.
func (h *ContactHandler) ImportContacts(ctx *xhttp.RequestCtx) {
	body := ctx.PostBody()
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(ctx, xhttp.StatusBadRequest, "empty file")
		return
	}
	res, err := h.svc.ImportContacts(ctx, currentUser(ctx).ID, query(ctx, "group"), services.NewCSVRowReader(bytes.NewReader(body)))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeOK(ctx, xhttp.StatusOK, "contacts imported", res)
}

func (h *ContactHandler) ListGroups(ctx *xhttp.RequestCtx) {
	groups, err := h.svc.Groups(ctx, currentUser(ctx).ID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeOK(ctx, xhttp.StatusOK, "", groups)
}
