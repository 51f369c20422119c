package handlers

import (
	"context"
	"net/http"
	"sync"

	"supply_sandbox/internal/models"
	"supply_sandbox/internal/service"
	"supply_sandbox/internal/wizard"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID  int
	signUpErr error
	token     service.Token
	signInErr error
	parseID   int
	parseErr  error

	lastCred       service.Credentials
	lastParseToken string
}

func (m *mockAuth) SignUp(_ context.Context, cred service.Credentials) (int, error) {
	m.lastCred = cred
	return m.signUpID, m.signUpErr
}

func (m *mockAuth) SignIn(_ context.Context, cred service.Credentials) (service.Token, error) {
	m.lastCred = cred
	return m.token, m.signInErr
}

func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockConfigurator struct {
	mu sync.Mutex

	snap     service.Snapshot
	getErr   error
	getCalls int
	openErr  error
	list     []models.Session
	listErr  error
	outcome  service.Outcome
	dispErr  error
	closeErr error

	lastUserID    int
	lastSessionID string
	lastEvent     wizard.Event
}

func (m *mockConfigurator) Open(ctx context.Context, userID int) (service.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastUserID = userID
	return m.snap, m.openErr
}

func (m *mockConfigurator) Get(ctx context.Context, userID int, sessionID string) (service.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	m.lastUserID = userID
	m.lastSessionID = sessionID
	return m.snap, m.getErr
}

func (m *mockConfigurator) List(ctx context.Context, userID int) ([]models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastUserID = userID
	return m.list, m.listErr
}

func (m *mockConfigurator) Dispatch(ctx context.Context, userID int, sessionID string, ev wizard.Event) (service.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastUserID = userID
	m.lastSessionID = sessionID
	m.lastEvent = ev
	return m.outcome, m.dispErr
}

func (m *mockConfigurator) Close(ctx context.Context, userID int, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastUserID = userID
	m.lastSessionID = sessionID
	return m.closeErr
}

// setSnapshot swaps the snapshot Get returns; safe while a stream is polling.
func (m *mockConfigurator) setSnapshot(s service.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = s
}

func (m *mockConfigurator) gets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getCalls
}

type mockCatalog struct {
	view service.CatalogView
}

func (m *mockCatalog) Catalog() service.CatalogView { return m.view }

type mockSandbox struct {
	runs    []models.SandboxRun
	run     models.SandboxRun
	err     error
	lastRun string
}

func (m *mockSandbox) Apply(ctx context.Context, userID int, sessionID string, scenarios []models.ConfiguredScenario) (models.SandboxRun, error) {
	return m.run, m.err
}

func (m *mockSandbox) Revoke(ctx context.Context, userID int, runID string) error {
	return m.err
}

func (m *mockSandbox) ListRuns(ctx context.Context, userID int) ([]models.SandboxRun, error) {
	return m.runs, m.err
}

func (m *mockSandbox) GetRun(ctx context.Context, userID int, runID string) (models.SandboxRun, error) {
	m.lastRun = runID
	return m.run, m.err
}

type mockEventLog struct {
	resp       []models.SessionEvent
	err        error
	lastFilter service.LogFilter
	calls      int
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.SessionEvent, error) {
	m.calls++
	m.lastFilter = f
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
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
