package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/brightech/goldpay/internal/gateway"
	"github.com/brightech/goldpay/internal/metrics"
	"github.com/brightech/goldpay/internal/models"
	"github.com/brightech/goldpay/internal/rates"
	"github.com/brightech/goldpay/internal/session"
)

// PaymentSessionService owns the live payment sessions and their collaborators.
type PaymentSessionService struct {
	sessions      map[string]*session.Session
	mutex         sync.RWMutex
	gatewayClient *gateway.Client
	ratesClient   *rates.Client
}

var paymentSessionService *PaymentSessionService

func init() {
	// Initialize logger
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(log.InfoLevel)
}

func main() {
	gatewayURL := getEnv("GATEWAY_URL", "https://akj.brightechsoftware.com")
	ratesURL := getEnv("RATES_URL", gatewayURL)
	port := getEnv("PORT", "8080")

	paymentSessionService = &PaymentSessionService{
		sessions:      make(map[string]*session.Session),
		gatewayClient: gateway.NewClient(gatewayURL),
		ratesClient:   rates.NewClient(ratesURL),
	}

	router := gin.Default()

	// Add Prometheus middleware
	router.Use(metrics.PrometheusMiddleware("payment-session-service"))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// Session endpoints
	router.POST("/session", startSession)
	router.GET("/session/circuit-status", getCircuitStatus)
	router.GET("/session/:sessionId", getSession)
	router.POST("/session/:sessionId/cancel", cancelSession)
	router.POST("/session/:sessionId/navigation", browserNavigation)
	router.POST("/session/:sessionId/browser-error", browserLoadError)
	router.DELETE("/session/:sessionId", teardownSession)

	// Reference rate endpoint
	router.GET("/rate/today", getTodayRate)

	// Metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	log.WithFields(log.Fields{
		"gateway_url": gatewayURL,
		"rates_url":   ratesURL,
	}).Info("Payment Session Service starting on port " + port)

	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}

// startSession validates the request, creates a payment link and starts the
// verification loop for a new session.
func startSession(c *gin.Context) {
	var req models.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request: " + err.Error()})
		return
	}

	sess := session.New(
		req,
		paymentSessionService.gatewayClient,
		&loggingBrowser{},
		autoConfirmPrompter{},
		session.Config{},
		func(out session.Outcome) {
			log.WithFields(log.Fields{
				"outcome": string(out.State),
				"amount":  out.Amount,
				"reason":  out.Reason,
			}).Info("Session outcome delivered")
		},
	)

	if err := sess.Begin(c.Request.Context()); err != nil {
		var validationErr *session.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: validationErr.Reason,
				Field: validationErr.Field,
			})
			return
		}
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: err.Error()})
		return
	}

	paymentSessionService.mutex.Lock()
	paymentSessionService.sessions[sess.ID()] = sess
	paymentSessionService.mutex.Unlock()

	snap := sess.Snapshot()
	c.JSON(http.StatusOK, models.StartSessionResponse{
		SessionID:   snap.SessionID,
		OrderID:     snap.OrderID,
		PaymentLink: snap.PaymentLink,
		State:       snap.State,
	})
}

// getSession returns a snapshot of one session.
func getSession(c *gin.Context) {
	sess, ok := lookupSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

// cancelSession runs the confirmed-cancel path for a session.
func cancelSession(c *gin.Context) {
	sess, ok := lookupSession(c)
	if !ok {
		return
	}
	sess.RequestCancel(c.Request.Context())
	c.JSON(http.StatusOK, sess.Snapshot())
}

// browserNavigation feeds an embedded-browser address change to the session.
func browserNavigation(c *gin.Context) {
	sess, ok := lookupSession(c)
	if !ok {
		return
	}
	var event models.NavigationEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request: " + err.Error()})
		return
	}
	sess.OnBrowserNavigation(event.URL)
	c.JSON(http.StatusOK, sess.Snapshot())
}

// browserLoadError feeds an embedded-browser load failure to the session.
func browserLoadError(c *gin.Context) {
	sess, ok := lookupSession(c)
	if !ok {
		return
	}
	var event models.BrowserErrorEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request: " + err.Error()})
		return
	}
	sess.OnBrowserLoadError(event.Description)
	c.JSON(http.StatusOK, sess.Snapshot())
}

// teardownSession releases a session's timers and removes it from the
// registry, mirroring the hosting screen being unmounted.
func teardownSession(c *gin.Context) {
	sess, ok := lookupSession(c)
	if !ok {
		return
	}
	sess.Teardown()

	paymentSessionService.mutex.Lock()
	delete(paymentSessionService.sessions, sess.ID())
	paymentSessionService.mutex.Unlock()

	c.JSON(http.StatusOK, gin.H{"session_id": sess.ID(), "status": "torn_down"})
}

// getTodayRate returns the current gold buying rate.
func getTodayRate(c *gin.Context) {
	rate, err := paymentSessionService.ratesClient.TodayRate(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, models.TodayRateResponse{Rate: rate})
}

// getCircuitStatus returns the state of the gateway circuit breaker.
func getCircuitStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"gateway_circuit": gin.H{
			"name":  "Gateway",
			"state": paymentSessionService.gatewayClient.CircuitState(),
		},
	})
}

func lookupSession(c *gin.Context) (*session.Session, bool) {
	sessionID := c.Param("sessionId")

	paymentSessionService.mutex.RLock()
	sess, exists := paymentSessionService.sessions[sessionID]
	paymentSessionService.mutex.RUnlock()

	if !exists {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Session not found"})
		return nil, false
	}
	return sess, true
}

// loggingBrowser stands in for the embedded browser, which lives in the
// mobile shell. It records presentation and dismissal.
type loggingBrowser struct{}

func (b *loggingBrowser) Present(url string) {
	log.WithField("url", url).Info("Payment page presented")
}

func (b *loggingBrowser) Dismiss() {
	log.Info("Payment page dismissed")
}

// autoConfirmPrompter stands in for the blocking confirmation prompt, which
// also lives in the mobile shell. A cancel request over the API is treated
// as already confirmed.
type autoConfirmPrompter struct{}

func (autoConfirmPrompter) Confirm(ctx context.Context, question string) bool { return true }

// getEnv gets environment variable with fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
