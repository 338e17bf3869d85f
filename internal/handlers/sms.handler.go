package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/fasthttp/router"
	"github.com/nimasrn/sms-portal/internal/model"
	xhttp "github.com/nimasrn/sms-portal/pkg/http"
)

type SMSService interface {
	ValidateBulk(ctx context.Context, sessionID string, ownerID int64, req model.BulkValidateRequest) (*model.ValidationResult, error)
	SendBulk(ctx context.Context, sessionID string, ownerID int64) (*model.BatchResult, error)
	SendIndividual(ctx context.Context, ownerID int64, req model.IndividualSendRequest) (*model.SendResult, error)
	CheckBalance(ctx context.Context) (*model.Balance, error)
}

type SMSLogReader interface {
	List(ctx context.Context, f model.SMSLogFilter) ([]*model.SendAttempt, int64, error)
	CountByBatch(ctx context.Context, ownerID int64, batchID string) (map[model.AttemptStatus]int64, error)
}

const (
	APIPrefix     = "/api/v1"
	bulkSendRoute = "/sms/bulk/send"

	// BulkSendPath is served without the request timeout. A bulk send may
	// span many gateway calls and must not be reported as failed while its
	// chunks are still going out.
	BulkSendPath = APIPrefix + bulkSendRoute
)

type SMSHandler struct {
	svc  SMSService
	logs SMSLogReader
}

func RegisterSMSRoutes(g *router.Group, h *SMSHandler, auth *Auth) {
	g.POST("/sms/bulk/validate", auth.User(h.ValidateBulk))
	g.POST(bulkSendRoute, auth.User(h.SendBulk))
	g.POST("/sms/individual", auth.User(h.SendIndividual))
	g.GET("/sms/balance", auth.User(h.Balance))
	g.GET("/sms/logs", auth.User(h.ListLogs))
	g.GET("/sms/logs/batches/{id}", auth.User(h.BatchSummary))
}

func NewSMSHandler(svc SMSService, logs SMSLogReader) *SMSHandler {
	return &SMSHandler{svc: svc, logs: logs}
}

type logListResponse struct {
	Items []*model.SendAttempt `json:"items"`
	Total int64                `json:"total"`
}

func (h *SMSHandler) ValidateBulk(ctx *xhttp.RequestCtx) {
	var req model.BulkValidateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	res, err := h.svc.ValidateBulk(ctx, xhttp.SessionID(ctx), currentUser(ctx).ID, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	status := xhttp.StatusOK
	if !res.Succeeded() {
		status = xhttp.StatusBadRequest
	}
	writeJSON(ctx, status, envelope{Status: res.Status, Message: res.Message, Data: res})
}

func (h *SMSHandler) SendBulk(ctx *xhttp.RequestCtx) {
	res, err := h.svc.SendBulk(ctx, xhttp.SessionID(ctx), currentUser(ctx).ID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, envelope{Status: res.Status, Message: res.Message, Data: res})
}

func (h *SMSHandler) SendIndividual(ctx *xhttp.RequestCtx) {
	var req model.IndividualSendRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	res, err := h.svc.SendIndividual(ctx, currentUser(ctx).ID, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	status := xhttp.StatusOK
	if res.Status != model.StatusSuccess {
		status = xhttp.StatusBadGateway
	}
	writeJSON(ctx, status, envelope{Status: res.Status, Message: res.Message, Data: res})
}

func (h *SMSHandler) Balance(ctx *xhttp.RequestCtx) {
	b, err := h.svc.CheckBalance(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeOK(ctx, xhttp.StatusOK, "", b)
}

// ListLogs returns the caller's own send attempts.
func (h *SMSHandler) ListLogs(ctx *xhttp.RequestCtx) {
	f := model.SMSLogFilter{OwnerID: currentUser(ctx).ID}

	if v := query(ctx, "status"); v != "" {
		s := model.AttemptStatus(v)
		if s != model.AttemptStatusSuccess && s != model.AttemptStatusFailed {
			writeError(ctx, xhttp.StatusBadRequest, "status must be success or failed")
			return
		}
		f.Status = &s
	}
	if v := query(ctx, "batch_id"); v != "" {
		f.BatchID = &v
	}
	if v := query(ctx, "from"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.From = &t
		}
	}
	if v := query(ctx, "to"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.To = &t
		}
	}
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Limit = n
		}
	}
	if v := query(ctx, "offset"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Offset = n
		}
	}
	if strings.EqualFold(query(ctx, "order"), "desc") {
		f.Desc = true
	}

	items, total, err := h.logs.List(ctx, f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	if items == nil {
		items = []*model.SendAttempt{}
	}
	writeOK(ctx, xhttp.StatusOK, "", logListResponse{Items: items, Total: total})
}

// BatchSummary tallies the logged attempts of one of the caller's batches.
// Batches owned by someone else look the same as unknown ones.
func (h *SMSHandler) BatchSummary(ctx *xhttp.RequestCtx) {
	id, _ := ctx.UserValue("id").(string)
	counts, err := h.logs.CountByBatch(ctx, currentUser(ctx).ID, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	sum := model.NewBatchSummary(id, counts)
	if sum.Total == 0 {
		writeError(ctx, xhttp.StatusNotFound, "batch not found")
		return
	}
	writeOK(ctx, xhttp.StatusOK, "", sum)
}
