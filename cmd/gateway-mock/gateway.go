package main

import (
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SendRequest is the body of POST /api/v1/sms/send.
type SendRequest struct {
	Sender     string   `json:"sender"`
	Recipients []string `json:"recipients" binding:"required,min=1"`
	Message    string   `json:"message" binding:"required"`
}

type apiResponse struct {
	Status    bool   `json:"status"`
	Message   string `json:"message"`
	Credits   *int   `json:"credits,omitempty"`
	MessageID string `json:"message_id,omitempty"`
}

// MockGateway simulates the third-party SMS gateway: a prepaid credit
// balance and a send call that accepts or rejects a whole recipient list.
type MockGateway struct {
	mu           sync.Mutex
	apiKey       string
	credits      int
	deliveryRate float64
	minDelay     time.Duration
	maxDelay     time.Duration
	rng          *rand.Rand
}

func NewMockGateway(apiKey string, credits int, deliveryRate float64, minDelay, maxDelay time.Duration) *MockGateway {
	return &MockGateway{
		apiKey:       apiKey,
		credits:      credits,
		deliveryRate: deliveryRate,
		minDelay:     minDelay,
		maxDelay:     maxDelay,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (m *MockGateway) randomDelay() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	delta := m.maxDelay - m.minDelay
	if delta <= 0 {
		return m.minDelay
	}
	return m.minDelay + time.Duration(m.rng.Int63n(int64(delta)))
}

func (m *MockGateway) authorize(c *gin.Context) {
	if m.apiKey == "" {
		c.Next()
		return
	}
	if strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ") != m.apiKey {
		c.AbortWithStatusJSON(http.StatusUnauthorized, apiResponse{Message: "invalid api key"})
		return
	}
	c.Next()
}

func (m *MockGateway) Balance(c *gin.Context) {
	m.mu.Lock()
	credits := m.credits
	m.mu.Unlock()
	c.JSON(http.StatusOK, apiResponse{Status: true, Credits: &credits})
}

// Send charges one credit per recipient. A rejected call is not charged.
func (m *MockGateway) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiResponse{Message: "invalid request: " + err.Error()})
		return
	}

	time.Sleep(m.randomDelay())

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.credits < len(req.Recipients) {
		log.Warn().Int("recipients", len(req.Recipients)).Int("credits", m.credits).Msg("insufficient credits")
		c.JSON(http.StatusOK, apiResponse{Message: "insufficient credits"})
		return
	}
	if m.rng.Float64() >= m.deliveryRate {
		log.Warn().Int("recipients", len(req.Recipients)).Str("sender", req.Sender).Msg("send rejected")
		c.JSON(http.StatusOK, apiResponse{Message: "operator rejected the message"})
		return
	}

	m.credits -= len(req.Recipients)
	id := uuid.NewString()
	log.Info().
		Str("message_id", id).
		Str("sender", req.Sender).
		Int("recipients", len(req.Recipients)).
		Int("credits_left", m.credits).
		Msg("sms accepted")
	c.JSON(http.StatusOK, apiResponse{Status: true, Message: "message sent", MessageID: id})
}

// UpdateConfig changes the delivery rate or tops up credits at runtime.
func (m *MockGateway) UpdateConfig(c *gin.Context) {
	var cfg struct {
		DeliveryRate *float64 `json:"delivery_rate"`
		Credits      *int     `json:"credits"`
	}
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, apiResponse{Message: "invalid request: " + err.Error()})
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if cfg.DeliveryRate != nil && *cfg.DeliveryRate >= 0 && *cfg.DeliveryRate <= 1 {
		m.deliveryRate = *cfg.DeliveryRate
	}
	if cfg.Credits != nil && *cfg.Credits >= 0 {
		m.credits = *cfg.Credits
	}
	log.Info().Float64("delivery_rate", m.deliveryRate).Int("credits", m.credits).Msg("configuration updated")
	credits := m.credits
	c.JSON(http.StatusOK, apiResponse{Status: true, Message: "configuration updated", Credits: &credits})
}

func SetupRouter(m *MockGateway) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request processed")
	})

	router.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "healthy"}) })

	v1 := router.Group("/api/v1", m.authorize)
	{
		v1.GET("/balance", m.Balance)
		v1.POST("/sms/send", m.Send)
		v1.PUT("/config", m.UpdateConfig)
	}
	return router
}
