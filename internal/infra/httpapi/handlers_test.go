package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"birthday_notifier/internal/app"
	"birthday_notifier/internal/domain/notify"
	"birthday_notifier/internal/domain/recipient"
	"birthday_notifier/internal/domain/sendlog"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDispatchService struct {
	result  *app.CycleResult
	summary *app.Summary
	err     error
}

func (s *stubDispatchService) RunCycle(_ context.Context, _ time.Time) (*app.CycleResult, error) {
	return s.result, s.err
}

func (s *stubDispatchService) Summary(_ context.Context, _ time.Time) (*app.Summary, error) {
	return s.summary, s.err
}

type stubRecipientRepo struct {
	recipients []*recipient.Recipient
}

func (s *stubRecipientRepo) Upsert(_ context.Context, r *recipient.Recipient) error {
	s.recipients = append(s.recipients, r)
	return nil
}

func (s *stubRecipientRepo) GetByEmail(_ context.Context, _ string) (*recipient.Recipient, error) {
	return nil, fmt.Errorf("not found")
}

func (s *stubRecipientRepo) ListAll(_ context.Context) ([]*recipient.Recipient, error) {
	return s.recipients, nil
}

func (s *stubRecipientRepo) Count(_ context.Context) (int, error) {
	return len(s.recipients), nil
}

type stubSendLog struct {
	records []*sendlog.Record
	cleared bool
}

func (s *stubSendLog) TryClaim(_ context.Context, _ *sendlog.Record) error { return nil }
func (s *stubSendLog) Rollback(_ context.Context, _ string, _ time.Time) error {
	return nil
}
func (s *stubSendLog) ListForDay(_ context.Context, _ time.Time) ([]*sendlog.Record, error) {
	return s.records, nil
}
func (s *stubSendLog) CountForDay(_ context.Context, _ time.Time) (int, error) {
	return len(s.records), nil
}
func (s *stubSendLog) ListRecent(_ context.Context, _ int) ([]*sendlog.Record, error) {
	return s.records, nil
}
func (s *stubSendLog) ClearAll(_ context.Context) error {
	s.cleared = true
	return nil
}

func newTestRouter(dispatch app.DispatchService, admin *app.AdminService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewHandler(dispatch, admin, time.UTC)
	return InitRoutes(handler)
}

func TestTriggerDispatchDone(t *testing.T) {
	dispatch := &stubDispatchService{result: &app.CycleResult{
		RunID: "run-1",
		Day:   "2024-06-01",
		BirthdaysToday: []*recipient.Recipient{
			{Name: "A", Email: "a@example.com", DateOfBirth: time.Date(2000, 6, 1, 0, 0, 0, 0, time.UTC)},
		},
		Notified: []string{"a@example.com"},
	}}
	router := newTestRouter(dispatch, app.NewAdminService(&stubRecipientRepo{}, &stubSendLog{}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/dispatch/run", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"done"`)
	assert.Contains(t, w.Body.String(), "a@example.com")
}

func TestTriggerDispatchQuotaExceededReturns429(t *testing.T) {
	dispatch := &stubDispatchService{
		result: &app.CycleResult{Notified: []string{}},
		err:    fmt.Errorf("cycle aborted: %w", notify.ErrQuotaExceeded),
	}
	router := newTestRouter(dispatch, app.NewAdminService(&stubRecipientRepo{}, &stubSendLog{}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/dispatch/run", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "limit_exceeded")
}

func TestTriggerDispatchOverlapReturnsSkipped(t *testing.T) {
	dispatch := &stubDispatchService{err: app.ErrCycleInProgress}
	router := newTestRouter(dispatch, app.NewAdminService(&stubRecipientRepo{}, &stubSendLog{}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/dispatch/run", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"skipped"`)
}

func TestTriggerDispatchStoreFailureReturns503(t *testing.T) {
	dispatch := &stubDispatchService{err: errors.New("send-history store unavailable")}
	router := newTestRouter(dispatch, app.NewAdminService(&stubRecipientRepo{}, &stubSendLog{}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/dispatch/run", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestDashboard(t *testing.T) {
	dispatch := &stubDispatchService{summary: &app.Summary{
		Today:           "2024-06-01",
		TotalRecipients: 2,
		BirthdaysToday: []*recipient.Recipient{
			{Name: "A", Email: "a@example.com", DateOfBirth: time.Date(2000, 6, 1, 0, 0, 0, 0, time.UTC)},
		},
		SentToday: 1,
		RecentRecords: []*sendlog.Record{{
			Email:       "a@example.com",
			Name:        "A",
			DateOfBirth: time.Date(2000, 6, 1, 0, 0, 0, 0, time.UTC),
			SentAt:      time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
			SentDay:     time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		}},
	}}
	router := newTestRouter(dispatch, app.NewAdminService(&stubRecipientRepo{}, &stubSendLog{}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"today":"2024-06-01"`)
	assert.Contains(t, w.Body.String(), `"totalRecipients":2`)
	assert.Contains(t, w.Body.String(), `"emailsSentToday":1`)
	assert.Contains(t, w.Body.String(), `"sentAtDate":"2024-06-01"`)
}

func TestUpsertUserValidation(t *testing.T) {
	router := newTestRouter(&stubDispatchService{}, app.NewAdminService(&stubRecipientRepo{}, &stubSendLog{}))

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{
			name:     "valid user",
			body:     `{"name":"Alice","email":"alice@example.com","dob":"1990-03-15"}`,
			wantCode: http.StatusOK,
		},
		{
			name:     "missing fields",
			body:     `{"name":"Alice"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "bad date",
			body:     `{"name":"Alice","email":"alice@example.com","dob":"15-03-1990"}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "bad email",
			body:     `{"name":"Alice","email":"not-an-email","dob":"1990-03-15"}`,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestListUsersAndLogs(t *testing.T) {
	repo := &stubRecipientRepo{recipients: []*recipient.Recipient{
		{Name: "Alice", Email: "alice@example.com", DateOfBirth: time.Date(1990, 3, 15, 0, 0, 0, 0, time.UTC)},
	}}
	sendLog := &stubSendLog{}
	router := newTestRouter(&stubDispatchService{}, app.NewAdminService(repo, sendLog))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"dob":"1990-03-15"`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/logs", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, sendLog.cleared)
	assert.Contains(t, w.Body.String(), "Logs cleared.")
}
