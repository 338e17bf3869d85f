package services

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	gateway "github.com/nimasrn/sms-portal/internal/gateways"
	"github.com/nimasrn/sms-portal/internal/model"
	"github.com/nimasrn/sms-portal/internal/phone"
	"github.com/nimasrn/sms-portal/internal/staging"
	"github.com/nimasrn/sms-portal/pkg/logger"
	"github.com/nimasrn/sms-portal/pkg/prom"
	"github.com/nimasrn/sms-portal/pkg/worker"
)

const (
	DefaultChunkSize       = 100
	DefaultFreshnessWindow = 300 * time.Second
	DefaultSystemMaxLen    = 160

	kindBulk       = "bulk"
	kindIndividual = "individual"
	kindSystem     = "system"
)

var (
	ErrValidationFailed    = errors.New("validation failed")
	ErrInsufficientBalance = fmt.Errorf("%w: insufficient balance", ErrValidationFailed)
	ErrStaleValidation     = errors.New("please validate numbers first")
	ErrGateway             = errors.New("sms gateway error")
	ErrDatabase            = errors.New("database error")
	ErrMessageTooLong      = errors.New("message exceeds maximum length")
)

type ContactStore interface {
	QueryByOwnerAndGroup(ctx context.Context, ownerID int64, group string) ([]*model.Contact, error)
}

type SMSLogStore interface {
	Append(ctx context.Context, a *model.SendAttempt) (*model.SendAttempt, error)
	AppendBatch(ctx context.Context, attempts []*model.SendAttempt) error
}

type SMSGateway interface {
	GetBalance(ctx context.Context) (int, error)
	Send(ctx context.Context, phones []string, message string) (*gateway.SendResponse, error)
}

type BulkOptions struct {
	ChunkSize int
	// Concurrency is the number of chunks in flight. 1 sends chunks one
	// after another.
	Concurrency     int
	FreshnessWindow time.Duration
	SystemMaxLen    int
	Now             func() time.Time
}

func (o *BulkOptions) setDefaults() {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	if o.FreshnessWindow <= 0 {
		o.FreshnessWindow = DefaultFreshnessWindow
	}
	if o.SystemMaxLen <= 0 {
		o.SystemMaxLen = DefaultSystemMaxLen
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// BulkSMSService runs the validate, stage, confirm and send pipeline for
// group messages, and the single-recipient sends that share its gateway.
type BulkSMSService struct {
	contacts ContactStore
	logs     SMSLogStore
	gateway  SMSGateway
	staging  staging.Store
	opts     BulkOptions
}

func NewBulkSMSService(contacts ContactStore, logs SMSLogStore, gw SMSGateway, store staging.Store, opts BulkOptions) *BulkSMSService {
	opts.setDefaults()
	return &BulkSMSService{
		contacts: contacts,
		logs:     logs,
		gateway:  gw,
		staging:  store,
		opts:     opts,
	}
}

// ValidateBulk checks the group's numbers and the account balance, and on
// success stages the batch for sessionID, replacing any earlier one.
// Expected failures come back as a result with status "error".
func (s *BulkSMSService) ValidateBulk(ctx context.Context, sessionID string, ownerID int64, req model.BulkValidateRequest) (*model.ValidationResult, error) {
	if err := req.Validate(); err != nil {
		return validationError(err.Error()), nil
	}

	contacts, err := s.contacts.QueryByOwnerAndGroup(ctx, ownerID, req.Group)
	if err != nil {
		return nil, fmt.Errorf("%w: load contacts: %v", ErrDatabase, err)
	}

	valid := make([]model.Recipient, 0, len(contacts))
	var invalid []string
	for _, c := range contacts {
		p, err := phone.CheckLoose(c.PhoneNumber)
		if err != nil {
			invalid = append(invalid, fmt.Sprintf("%s (%s): invalid phone number format", c.Name, c.PhoneNumber))
			continue
		}
		valid = append(valid, model.Recipient{Phone: p, Name: c.Name})
	}

	if len(valid) == 0 {
		logger.Info("bulk validation found no valid numbers", "owner_id", ownerID, "group", req.Group, "contacts", len(contacts))
		r := validationError("no valid phone numbers found in group")
		r.GroupName = req.Group
		r.InvalidNumbers = invalid
		return r, nil
	}

	credits, err := s.gateway.GetBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	if credits < len(valid) {
		r := validationError(fmt.Sprintf("insufficient balance: required %d, available %d", len(valid), credits))
		r.GroupName = req.Group
		r.ValidCount = len(valid)
		r.InvalidNumbers = invalid
		r.RequiredCredits = len(valid)
		r.AvailableCredits = credits
		return r, nil
	}

	batch := &model.StagedBatch{
		OwnerID:   ownerID,
		Numbers:   valid,
		Message:   req.Message,
		Group:     req.Group,
		CreatedAt: s.opts.Now(),
	}
	if err := s.staging.Put(ctx, sessionID, batch); err != nil {
		return nil, fmt.Errorf("stage bulk batch: %w", err)
	}

	logger.Info("bulk batch staged", "owner_id", ownerID, "group", req.Group, "valid", len(valid), "invalid", len(invalid))
	return &model.ValidationResult{
		Status:           model.StatusSuccess,
		Message:          fmt.Sprintf("%d numbers validated for group %s", len(valid), req.Group),
		ValidCount:       len(valid),
		GroupName:        req.Group,
		InvalidNumbers:   invalid,
		RequiredCredits:  len(valid),
		AvailableCredits: credits,
	}, nil
}

type chunkOutcome struct {
	recipients []model.Recipient
	ok         bool
	errMsg     string
}

// SendBulk consumes the batch staged for sessionID and sends it in chunks.
// A batch is usable once and only within the freshness window.
func (s *BulkSMSService) SendBulk(ctx context.Context, sessionID string, ownerID int64) (*model.BatchResult, error) {
	batch, err := s.staging.Take(ctx, sessionID)
	if errors.Is(err, staging.ErrNotFound) {
		return nil, ErrStaleValidation
	}
	if err != nil {
		return nil, fmt.Errorf("load staged batch: %w", err)
	}
	if batch.OwnerID != ownerID {
		logger.Warn("staged batch owner mismatch", "session", sessionID, "owner_id", ownerID)
		return nil, ErrStaleValidation
	}
	if batch.Expired(s.opts.Now(), s.opts.FreshnessWindow) {
		logger.Info("staged batch expired", "owner_id", ownerID, "group", batch.Group, "created_at", batch.CreatedAt)
		return nil, ErrStaleValidation
	}

	chunks := chunkRecipients(batch.Numbers, s.opts.ChunkSize)
	batchID := uuid.NewString()
	outcomes := make([]chunkOutcome, len(chunks))

	logger.Info("bulk send started", "owner_id", ownerID, "batch_id", batchID, "recipients", len(batch.Numbers), "chunks", len(chunks))

	err = worker.ForEach(ctx, s.opts.Concurrency, len(chunks), func(ctx context.Context, i int) error {
		out, err := s.sendChunk(ctx, ownerID, batchID, batch.Message, chunks[i])
		if err != nil {
			logger.Error("bulk chunk log write failed", "batch_id", batchID, "chunk", i, "error", err)
			return err
		}
		outcomes[i] = out
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDatabase) {
			return nil, err
		}
		return nil, fmt.Errorf("bulk send: %w", err)
	}

	res := &model.BatchResult{
		BatchID:          batchID,
		TotalRecipients:  len(batch.Numbers),
		FailedRecipients: []model.FailedRecipient{},
	}
	for _, o := range outcomes {
		if o.ok {
			res.SuccessfulSends += len(o.recipients)
			continue
		}
		res.FailedSends += len(o.recipients)
		for _, r := range o.recipients {
			res.FailedRecipients = append(res.FailedRecipients, model.FailedRecipient{Name: r.Name, MaskedPhone: phone.Mask(r.Phone)})
		}
	}
	res.Status = model.StatusSuccess
	if res.FailedSends > 0 {
		res.Status = model.StatusPartialSuccess
	}
	res.Message = fmt.Sprintf("bulk SMS completed: %d sent, %d failed", res.SuccessfulSends, res.FailedSends)

	logger.Info("bulk send finished", "owner_id", ownerID, "batch_id", batchID, "sent", res.SuccessfulSends, "failed", res.FailedSends)
	return res, nil
}

// sendChunk makes one gateway call for the chunk and logs one attempt per
// recipient. Only a log write failure is returned as an error.
func (s *BulkSMSService) sendChunk(ctx context.Context, ownerID int64, batchID, message string, chunk []model.Recipient) (chunkOutcome, error) {
	phones := make([]string, len(chunk))
	for i, r := range chunk {
		phones[i] = r.Phone
	}

	out := chunkOutcome{recipients: chunk}
	resp, err := s.gateway.Send(ctx, phones, message)
	switch {
	case err != nil:
		out.errMsg = err.Error()
	case resp.Accepted:
		out.ok = true
	default:
		out.errMsg = resp.Message
		if out.errMsg == "" {
			out.errMsg = "gateway reported failure"
		}
	}

	status := model.AttemptStatusSuccess
	var errMsg *string
	if !out.ok {
		status = model.AttemptStatusFailed
		msg := out.errMsg
		errMsg = &msg
	}
	now := s.opts.Now().UTC()
	bid := batchID
	attempts := make([]*model.SendAttempt, len(chunk))
	for i, r := range chunk {
		attempts[i] = &model.SendAttempt{
			OwnerID:      ownerID,
			BatchID:      &bid,
			Phone:        r.Phone,
			Message:      message,
			Status:       status,
			ErrorMessage: errMsg,
			SentAt:       now,
		}
	}
	// The log must be written even if the caller has gone away.
	if err := s.logs.AppendBatch(context.WithoutCancel(ctx), attempts); err != nil {
		return out, fmt.Errorf("%w: write send log: %v", ErrDatabase, err)
	}

	prom.IncBulkChunk(string(status))
	prom.AddRecipients(kindBulk, string(status), len(chunk))
	return out, nil
}

// SendIndividual sends a user-composed message to one number.
func (s *BulkSMSService) SendIndividual(ctx context.Context, ownerID int64, req model.IndividualSendRequest) (*model.SendResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	p, err := phone.CheckLoose(req.Phone)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	return s.sendSingle(ctx, kindIndividual, ownerID, p, req.Message)
}

// SendSystemMessage sends a platform-generated message such as a welcome
// or approval notice. Its length is a hard limit.
func (s *BulkSMSService) SendSystemMessage(ctx context.Context, ownerID int64, to, message string) (*model.SendResult, error) {
	p, err := phone.CheckLoose(to)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	if n := utf8.RuneCountInString(message); n > s.opts.SystemMaxLen {
		return nil, fmt.Errorf("%w: %d > %d characters", ErrMessageTooLong, n, s.opts.SystemMaxLen)
	}
	return s.sendSingle(ctx, kindSystem, ownerID, p, message)
}

func (s *BulkSMSService) sendSingle(ctx context.Context, kind string, ownerID int64, to, message string) (*model.SendResult, error) {
	credits, err := s.gateway.GetBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	if credits < 1 {
		return nil, ErrInsufficientBalance
	}

	res := &model.SendResult{Phone: to}
	attempt := &model.SendAttempt{
		OwnerID: ownerID,
		Phone:   to,
		Message: message,
	}
	resp, err := s.gateway.Send(ctx, []string{to}, message)
	switch {
	case err != nil:
		res.Status, res.Message = model.StatusFailed, err.Error()
	case resp.Accepted:
		res.Status, res.Message = model.StatusSuccess, resp.Message
		if res.Message == "" {
			res.Message = "SMS sent successfully"
		}
	default:
		res.Status, res.Message = model.StatusFailed, resp.Message
	}

	attempt.Status = model.AttemptStatusSuccess
	if res.Status != model.StatusSuccess {
		attempt.Status = model.AttemptStatusFailed
		msg := res.Message
		attempt.ErrorMessage = &msg
	}
	attempt.SentAt = s.opts.Now().UTC()
	if _, err := s.logs.Append(context.WithoutCancel(ctx), attempt); err != nil {
		return nil, fmt.Errorf("%w: write send log: %v", ErrDatabase, err)
	}
	prom.AddRecipients(kind, string(attempt.Status), 1)

	logger.Info("sms sent", "kind", kind, "owner_id", ownerID, "phone", phone.Mask(to), "status", res.Status)
	return res, nil
}

func (s *BulkSMSService) CheckBalance(ctx context.Context) (*model.Balance, error) {
	credits, err := s.gateway.GetBalance(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	return &model.Balance{Credits: credits}, nil
}

func chunkRecipients(rs []model.Recipient, size int) [][]model.Recipient {
	out := make([][]model.Recipient, 0, (len(rs)+size-1)/size)
	for start := 0; start < len(rs); start += size {
		end := min(start+size, len(rs))
		out = append(out, rs[start:end])
	}
	return out
}

func validationError(msg string) *model.ValidationResult {
	return &model.ValidationResult{Status: model.StatusError, Message: msg}
}
