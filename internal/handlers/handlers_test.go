package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nimasrn/sms-portal/internal/model"
	"github.com/nimasrn/sms-portal/internal/repository"
	"github.com/nimasrn/sms-portal/internal/services"
	xhttp "github.com/nimasrn/sms-portal/pkg/http"
	"github.com/nimasrn/sms-portal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

type MockSMSService struct {
	mock.Mock
}

func (m *MockSMSService) ValidateBulk(ctx context.Context, sessionID string, ownerID int64, req model.BulkValidateRequest) (*model.ValidationResult, error) {
	args := m.Called(ctx, sessionID, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ValidationResult), args.Error(1)
}

func (m *MockSMSService) SendBulk(ctx context.Context, sessionID string, ownerID int64) (*model.BatchResult, error) {
	args := m.Called(ctx, sessionID, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BatchResult), args.Error(1)
}

func (m *MockSMSService) SendIndividual(ctx context.Context, ownerID int64, req model.IndividualSendRequest) (*model.SendResult, error) {
	args := m.Called(ctx, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SendResult), args.Error(1)
}

func (m *MockSMSService) CheckBalance(ctx context.Context) (*model.Balance, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Balance), args.Error(1)
}

type MockLogReader struct {
	mock.Mock
}

func (m *MockLogReader) List(ctx context.Context, f model.SMSLogFilter) ([]*model.SendAttempt, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.SendAttempt), args.Get(1).(int64), args.Error(2)
}

func (m *MockLogReader) CountByBatch(ctx context.Context, ownerID int64, batchID string) (map[model.AttemptStatus]int64, error) {
	args := m.Called(ctx, ownerID, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[model.AttemptStatus]int64), args.Error(1)
}

type MockUserLookup struct {
	mock.Mock
}

func (m *MockUserLookup) GetByAPIKey(ctx context.Context, apiKey string) (*model.User, error) {
	args := m.Called(ctx, apiKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) SendWelcome(ctx context.Context, userID int64) (*model.SendResult, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SendResult), args.Error(1)
}

func (m *MockNotificationService) SendSenderApproved(ctx context.Context, userID int64) (*model.SendResult, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SendResult), args.Error(1)
}

type MockContactService struct {
	mock.Mock
}

func (m *MockContactService) AddContact(ctx context.Context, ownerID int64, req model.ContactCreateRequest) (*model.Contact, error) {
	args := m.Called(ctx, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Contact), args.Error(1)
}

func (m *MockContactService) ImportContacts(ctx context.Context, ownerID int64, group string, rows services.RowReader) (*model.ImportResult, error) {
	args := m.Called(ctx, ownerID, group, rows)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ImportResult), args.Error(1)
}

func (m *MockContactService) Groups(ctx context.Context, ownerID int64) ([]string, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

var testUser = &model.User{ID: 7, Username: "ama", Role: model.RoleUser}

func setupTestContext(method, path string, body []byte) *xhttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	if body != nil {
		ctx.Request.SetBody(body)
	}
	return ctx
}

// asUser runs h as testUser within session sid.
func asUser(ctx *xhttp.RequestCtx, sid string, h xhttp.RequestHandler) {
	ctx.Request.Header.Set(xhttp.SessionHeader, sid)
	ctx.SetUserValue(userKey, testUser)
	xhttp.SessionMiddleware(h)(ctx)
}

func decode(t *testing.T, ctx *xhttp.RequestCtx) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &out))
	return out
}

func TestMain(m *testing.M) {
	logger.NewNop()
	m.Run()
}

func TestSMSHandler_ValidateBulk(t *testing.T) {
	t.Run("staged", func(t *testing.T) {
		svc := new(MockSMSService)
		h := NewSMSHandler(svc, nil)
		svc.On("ValidateBulk", mock.Anything, "s1", int64(7), model.BulkValidateRequest{Group: "g", Message: "hi"}).
			Return(&model.ValidationResult{Status: model.StatusSuccess, Message: "2 numbers validated for group g", ValidCount: 2}, nil)

		ctx := setupTestContext("POST", "/api/v1/sms/bulk/validate", []byte(`{"group":"g","message":"hi"}`))
		asUser(ctx, "s1", h.ValidateBulk)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		body := decode(t, ctx)
		assert.Equal(t, "success", body["status"])
		assert.Equal(t, float64(2), body["data"].(map[string]any)["valid_count"])
		svc.AssertExpectations(t)
	})

	t.Run("expected failure is 400 envelope", func(t *testing.T) {
		svc := new(MockSMSService)
		h := NewSMSHandler(svc, nil)
		svc.On("ValidateBulk", mock.Anything, "s1", int64(7), mock.Anything).
			Return(&model.ValidationResult{Status: model.StatusError, Message: "no valid phone numbers found in group"}, nil)

		ctx := setupTestContext("POST", "/api/v1/sms/bulk/validate", []byte(`{"group":"g","message":"hi"}`))
		asUser(ctx, "s1", h.ValidateBulk)

		assert.Equal(t, 400, ctx.Response.StatusCode())
		body := decode(t, ctx)
		assert.Equal(t, "error", body["status"])
		assert.Equal(t, "no valid phone numbers found in group", body["message"])
	})

	t.Run("invalid JSON", func(t *testing.T) {
		h := NewSMSHandler(new(MockSMSService), nil)
		ctx := setupTestContext("POST", "/api/v1/sms/bulk/validate", []byte("nope"))
		asUser(ctx, "s1", h.ValidateBulk)

		assert.Equal(t, 400, ctx.Response.StatusCode())
		assert.Contains(t, decode(t, ctx)["message"], "invalid JSON")
	})

	t.Run("gateway failure is 502", func(t *testing.T) {
		svc := new(MockSMSService)
		h := NewSMSHandler(svc, nil)
		svc.On("ValidateBulk", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: timeout", services.ErrGateway))

		ctx := setupTestContext("POST", "/api/v1/sms/bulk/validate", []byte(`{"group":"g","message":"hi"}`))
		asUser(ctx, "s1", h.ValidateBulk)

		assert.Equal(t, 502, ctx.Response.StatusCode())
		assert.NotContains(t, decode(t, ctx)["message"], "timeout")
	})
}

func TestSMSHandler_SendBulk(t *testing.T) {
	t.Run("partial success", func(t *testing.T) {
		svc := new(MockSMSService)
		h := NewSMSHandler(svc, nil)
		svc.On("SendBulk", mock.Anything, "s1", int64(7)).Return(&model.BatchResult{
			Status:           model.StatusPartialSuccess,
			Message:          "bulk SMS completed: 1 sent, 1 failed",
			TotalRecipients:  2,
			SuccessfulSends:  1,
			FailedSends:      1,
			FailedRecipients: []model.FailedRecipient{{Name: "b", MaskedPhone: "+********4567"}},
		}, nil)

		ctx := setupTestContext("POST", "/api/v1/sms/bulk/send", nil)
		asUser(ctx, "s1", h.SendBulk)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		body := decode(t, ctx)
		assert.Equal(t, "partial_success", body["status"])
		failed := body["data"].(map[string]any)["failed_recipients"].([]any)
		assert.Equal(t, "+********4567", failed[0].(map[string]any)["masked_phone"])
	})

	t.Run("stale is 400", func(t *testing.T) {
		svc := new(MockSMSService)
		h := NewSMSHandler(svc, nil)
		svc.On("SendBulk", mock.Anything, "s1", int64(7)).Return(nil, services.ErrStaleValidation)

		ctx := setupTestContext("POST", "/api/v1/sms/bulk/send", nil)
		asUser(ctx, "s1", h.SendBulk)

		assert.Equal(t, 400, ctx.Response.StatusCode())
		assert.Equal(t, "please validate numbers first", decode(t, ctx)["message"])
	})

	t.Run("database failure is 500", func(t *testing.T) {
		svc := new(MockSMSService)
		h := NewSMSHandler(svc, nil)
		svc.On("SendBulk", mock.Anything, "s1", int64(7)).Return(nil, fmt.Errorf("%w: write send log: boom", services.ErrDatabase))

		ctx := setupTestContext("POST", "/api/v1/sms/bulk/send", nil)
		asUser(ctx, "s1", h.SendBulk)

		assert.Equal(t, 500, ctx.Response.StatusCode())
	})
}

func TestSMSHandler_SendIndividual(t *testing.T) {
	svc := new(MockSMSService)
	h := NewSMSHandler(svc, nil)
	svc.On("SendIndividual", mock.Anything, int64(7), model.IndividualSendRequest{Phone: "+233241234567", Message: "hi"}).
		Return(nil, services.ErrInsufficientBalance)

	ctx := setupTestContext("POST", "/api/v1/sms/individual", []byte(`{"phone":"+233241234567","message":"hi"}`))
	asUser(ctx, "s1", h.SendIndividual)

	assert.Equal(t, 400, ctx.Response.StatusCode())
	assert.Contains(t, decode(t, ctx)["message"], "insufficient balance")
}

func TestSMSHandler_Balance(t *testing.T) {
	svc := new(MockSMSService)
	h := NewSMSHandler(svc, nil)
	svc.On("CheckBalance", mock.Anything).Return(&model.Balance{Credits: 12}, nil)

	ctx := setupTestContext("GET", "/api/v1/sms/balance", nil)
	asUser(ctx, "s1", h.Balance)

	assert.Equal(t, 200, ctx.Response.StatusCode())
	assert.Equal(t, float64(12), decode(t, ctx)["data"].(map[string]any)["credits"])
}

func TestSMSHandler_ListLogs(t *testing.T) {
	logs := new(MockLogReader)
	h := NewSMSHandler(nil, logs)
	logs.On("List", mock.Anything, mock.MatchedBy(func(f model.SMSLogFilter) bool {
		return f.OwnerID == 7 && f.Status != nil && *f.Status == model.AttemptStatusFailed &&
			f.BatchID != nil && *f.BatchID == "b1" && f.Limit == 10 && f.Desc
	})).Return(nil, int64(0), nil)

	ctx := setupTestContext("GET", "/api/v1/sms/logs?status=failed&batch_id=b1&limit=10&order=desc", nil)
	asUser(ctx, "s1", h.ListLogs)

	assert.Equal(t, 200, ctx.Response.StatusCode())
	data := decode(t, ctx)["data"].(map[string]any)
	assert.Equal(t, []any{}, data["items"])
	logs.AssertExpectations(t)

	ctx = setupTestContext("GET", "/api/v1/sms/logs?status=queued", nil)
	asUser(ctx, "s1", h.ListLogs)
	assert.Equal(t, 400, ctx.Response.StatusCode())
}

func TestSMSHandler_BatchSummary(t *testing.T) {
	t.Run("tally", func(t *testing.T) {
		logs := new(MockLogReader)
		h := NewSMSHandler(nil, logs)
		logs.On("CountByBatch", mock.Anything, int64(7), "b1").
			Return(map[model.AttemptStatus]int64{model.AttemptStatusSuccess: 3, model.AttemptStatusFailed: 2}, nil)

		ctx := setupTestContext("GET", "/api/v1/sms/logs/batches/b1", nil)
		ctx.SetUserValue("id", "b1")
		asUser(ctx, "s1", h.BatchSummary)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		data := decode(t, ctx)["data"].(map[string]any)
		assert.Equal(t, "b1", data["batch_id"])
		assert.Equal(t, float64(5), data["total"])
		assert.Equal(t, float64(3), data["successful"])
		assert.Equal(t, float64(2), data["failed"])
		logs.AssertExpectations(t)
	})

	t.Run("unknown or foreign batch is 404", func(t *testing.T) {
		logs := new(MockLogReader)
		h := NewSMSHandler(nil, logs)
		logs.On("CountByBatch", mock.Anything, int64(7), "other").Return(map[model.AttemptStatus]int64{}, nil)

		ctx := setupTestContext("GET", "/api/v1/sms/logs/batches/other", nil)
		ctx.SetUserValue("id", "other")
		asUser(ctx, "s1", h.BatchSummary)

		assert.Equal(t, 404, ctx.Response.StatusCode())
		assert.Equal(t, "batch not found", decode(t, ctx)["message"])
	})

	t.Run("read failure is 500", func(t *testing.T) {
		logs := new(MockLogReader)
		h := NewSMSHandler(nil, logs)
		logs.On("CountByBatch", mock.Anything, int64(7), "b1").Return(nil, errors.New("conn reset"))

		ctx := setupTestContext("GET", "/api/v1/sms/logs/batches/b1", nil)
		ctx.SetUserValue("id", "b1")
		asUser(ctx, "s1", h.BatchSummary)

		assert.Equal(t, 500, ctx.Response.StatusCode())
		assert.NotContains(t, decode(t, ctx)["message"], "conn reset")
	})
}

func TestContactHandler(t *testing.T) {
	t.Run("add duplicate is 409", func(t *testing.T) {
		svc := new(MockContactService)
		h := NewContactHandler(svc)
		svc.On("AddContact", mock.Anything, int64(7), mock.Anything).Return(nil, services.ErrDuplicateContact)

		ctx := setupTestContext("POST", "/api/v1/contacts", []byte(`{"name":"a","phone":"+233241234567","group":"g"}`))
		asUser(ctx, "s1", h.AddContact)
		assert.Equal(t, 409, ctx.Response.StatusCode())
	})

	t.Run("import passes group and rows", func(t *testing.T) {
		svc := new(MockContactService)
		h := NewContactHandler(svc)
		var row []string
		svc.On("ImportContacts", mock.Anything, int64(7), "staff", mock.Anything).
			Run(func(args mock.Arguments) { row, _ = args.Get(3).(services.RowReader).Next() }).
			Return(&model.ImportResult{Imported: 1, Failed: []model.ImportFailure{}}, nil)

		ctx := setupTestContext("POST", "/api/v1/contacts/import?group=staff", []byte("Ama,+233241234567\n"))
		asUser(ctx, "s1", h.ImportContacts)

		assert.Equal(t, 200, ctx.Response.StatusCode())
		assert.Equal(t, []string{"Ama", "+233241234567"}, row)
		svc.AssertExpectations(t)
	})

	t.Run("import empty body", func(t *testing.T) {
		h := NewContactHandler(new(MockContactService))
		ctx := setupTestContext("POST", "/api/v1/contacts/import?group=staff", []byte("  \n"))
		asUser(ctx, "s1", h.ImportContacts)
		assert.Equal(t, 400, ctx.Response.StatusCode())
	})

	t.Run("groups", func(t *testing.T) {
		svc := new(MockContactService)
		h := NewContactHandler(svc)
		svc.On("Groups", mock.Anything, int64(7)).Return([]string{"a", "b"}, nil)

		ctx := setupTestContext("GET", "/api/v1/contacts/groups", nil)
		asUser(ctx, "s1", h.ListGroups)
		assert.Equal(t, []any{"a", "b"}, decode(t, ctx)["data"])
	})
}

func TestAuth(t *testing.T) {
	users := new(MockUserLookup)
	auth := NewAuth(users)
	users.On("GetByAPIKey", mock.Anything, "good").Return(testUser, nil)
	users.On("GetByAPIKey", mock.Anything, "admin").Return(&model.User{ID: 1, Role: model.RoleAdmin}, nil)
	users.On("GetByAPIKey", mock.Anything, "bad").Return(nil, repository.ErrUserNotFound)
	users.On("GetByAPIKey", mock.Anything, "broken").Return(nil, errors.New("db down"))

	var seen *model.User
	next := func(ctx *xhttp.RequestCtx) { seen = currentUser(ctx) }

	cases := []struct {
		name   string
		key    string
		admin  bool
		status int
	}{
		{"missing key", "", false, 401},
		{"unknown key", "bad", false, 401},
		{"lookup error", "broken", false, 500},
		{"user", "good", false, 200},
		{"user on admin route", "good", true, 403},
		{"admin on admin route", "admin", true, 200},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			seen = nil
			ctx := setupTestContext("GET", "/x", nil)
			if c.key != "" {
				ctx.Request.Header.Set(APIKeyHeader, c.key)
			}
			h := auth.User(next)
			if c.admin {
				h = auth.Admin(next)
			}
			h(ctx)
			assert.Equal(t, c.status, ctx.Response.StatusCode())
			assert.Equal(t, c.status == 200, seen != nil)
		})
	}
}

func TestAdminHandler(t *testing.T) {
	svc := new(MockNotificationService)
	h := NewAdminHandler(svc)
	svc.On("SendWelcome", mock.Anything, int64(3)).Return(&model.SendResult{Status: model.StatusSuccess, Message: "SMS sent successfully"}, nil)
	svc.On("SendSenderApproved", mock.Anything, int64(4)).Return(nil, services.ErrUserNotFound)

	ctx := setupTestContext("POST", "/api/v1/admin/users/3/welcome", nil)
	ctx.SetUserValue("id", "3")
	asUser(ctx, "s1", h.SendWelcome)
	assert.Equal(t, 200, ctx.Response.StatusCode())

	ctx = setupTestContext("POST", "/api/v1/admin/users/4/approve-sender", nil)
	ctx.SetUserValue("id", "4")
	asUser(ctx, "s1", h.ApproveSender)
	assert.Equal(t, 404, ctx.Response.StatusCode())

	ctx = setupTestContext("POST", "/api/v1/admin/users/x/welcome", nil)
	ctx.SetUserValue("id", "x")
	asUser(ctx, "s1", h.SendWelcome)
	assert.Equal(t, 400, ctx.Response.StatusCode())
}

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler(map[string]Pinger{"postgres": stubPinger{}, "redis": stubPinger{}})
	ctx := setupTestContext("GET", "/health", nil)
	h.GetHealth(ctx)
	assert.Equal(t, 200, ctx.Response.StatusCode())

	h = NewHealthHandler(map[string]Pinger{"postgres": stubPinger{}, "redis": stubPinger{err: errors.New("refused")}})
	ctx = setupTestContext("GET", "/health", nil)
	h.GetHealth(ctx)
	assert.Equal(t, 503, ctx.Response.StatusCode())
	assert.Equal(t, "down", decode(t, ctx)["data"].(map[string]any)["redis"])
}

func TestRoutes(t *testing.T) {
	users := new(MockUserLookup)
	users.On("GetByAPIKey", mock.Anything, "good").Return(testUser, nil)
	sms := new(MockSMSService)
	sms.On("CheckBalance", mock.Anything).Return(&model.Balance{Credits: 1}, nil)

	logs := new(MockLogReader)
	logs.On("CountByBatch", mock.Anything, int64(7), "b9").
		Return(map[model.AttemptStatus]int64{model.AttemptStatusSuccess: 1}, nil)

	e := xhttp.CreateServer()
	auth := NewAuth(users)
	g := e.Router.Group(APIPrefix)
	RegisterSMSRoutes(g, NewSMSHandler(sms, logs), auth)
	RegisterContactRoutes(g, NewContactHandler(new(MockContactService)), auth)
	RegisterAdminRoutes(g, NewAdminHandler(new(MockNotificationService)), auth)
	RegisterHealthRoutes(e.Router, NewHealthHandler(nil))
	e.Use(xhttp.SessionMiddleware)
	handler := e.Handler()

	ctx := setupTestContext("GET", "/api/v1/sms/logs/batches/b9", nil)
	ctx.Request.Header.Set(APIKeyHeader, "good")
	handler(ctx)
	assert.Equal(t, 200, ctx.Response.StatusCode())
	logs.AssertExpectations(t)

	ctx = setupTestContext("GET", "/api/v1/sms/balance", nil)
	ctx.Request.Header.Set(APIKeyHeader, "good")
	handler(ctx)
	assert.Equal(t, 200, ctx.Response.StatusCode())
	assert.NotEmpty(t, ctx.Response.Header.Peek(xhttp.SessionHeader))

	ctx = setupTestContext("POST", "/api/v1/admin/users/3/welcome", nil)
	ctx.Request.Header.Set(APIKeyHeader, "good")
	handler(ctx)
	assert.Equal(t, 403, ctx.Response.StatusCode())

	ctx = setupTestContext("GET", "/health", nil)
	handler(ctx)
	assert.Equal(t, 200, ctx.Response.StatusCode())
}

// A bulk send that outlives the request timeout must still answer with its
// result, while other routes keep the 408.
func TestRoutes_BulkSendOutlivesRequestTimeout(t *testing.T) {
	users := new(MockUserLookup)
	users.On("GetByAPIKey", mock.Anything, "good").Return(testUser, nil)

	var sent atomic.Bool
	sms := new(MockSMSService)
	sms.On("SendBulk", mock.Anything, "s1", int64(7)).
		Run(func(mock.Arguments) {
			time.Sleep(200 * time.Millisecond)
			sent.Store(true)
		}).
		Return(&model.BatchResult{Status: model.StatusSuccess, Message: "bulk SMS completed: 2 sent", TotalRecipients: 2, SuccessfulSends: 2}, nil)
	sms.On("CheckBalance", mock.Anything).
		Run(func(mock.Arguments) { time.Sleep(200 * time.Millisecond) }).
		Return(&model.Balance{Credits: 1}, nil)

	e := xhttp.CreateServer()
	e.Use(xhttp.SessionMiddleware)
	e.Use(xhttp.TimeoutMiddleware(50*time.Millisecond, BulkSendPath))
	RegisterSMSRoutes(e.Router.Group(APIPrefix), NewSMSHandler(sms, new(MockLogReader)), NewAuth(users))
	require.NoError(t, e.DoRouting())

	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = e.Server.Serve(ln) }()
	t.Cleanup(func() { _ = ln.Close() })
	client := &fasthttp.Client{Dial: func(string) (net.Conn, error) { return ln.Dial() }}

	call := func(method, path string) (int, []byte) {
		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)
		req.Header.SetMethod(method)
		req.SetRequestURI("http://portal" + path)
		req.Header.Set(APIKeyHeader, "good")
		req.Header.Set(xhttp.SessionHeader, "s1")
		require.NoError(t, client.Do(req, resp))
		return resp.StatusCode(), append([]byte(nil), resp.Body()...)
	}

	status, body := call("POST", BulkSendPath)
	assert.Equal(t, 200, status)
	assert.True(t, sent.Load())
	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "success", out["status"])
	sms.AssertNumberOfCalls(t, "SendBulk", 1)

	status, _ = call("GET", APIPrefix+"/sms/balance")
	assert.Equal(t, 408, status)
}
