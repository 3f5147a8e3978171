package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"heatpump_monitor/internal/models"
	"heatpump_monitor/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockController struct {
	err   error
	calls []string
}

func (m *mockController) AckOverflow(context.Context) error {
	m.calls = append(m.calls, "ack_overflow")
	return m.err
}
func (m *mockController) ClearBuffer(context.Context) error {
	m.calls = append(m.calls, "clear_buffer")
	return m.err
}
func (m *mockController) ResetAlerts(context.Context) error {
	m.calls = append(m.calls, "reset_alerts")
	return m.err
}

type mockMonitoring struct {
	mu     sync.Mutex
	status models.DeviceStatus
	err    error
}

func (m *mockMonitoring) GetStatus(ctx context.Context) (models.DeviceStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status, m.err
}

// setStatus replaces the status while a stream may be polling.
func (m *mockMonitoring) setStatus(st models.DeviceStatus) {
	m.mu.Lock()
	m.status = st
	m.mu.Unlock()
}

type mockEventLog struct {
	resp     []models.DeviceEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.DeviceEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
