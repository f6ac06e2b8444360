package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"anoa.com/handchatter/internal/middleware"
	verification "anoa.com/handchatter/internal/modules/verification/service"
	"anoa.com/handchatter/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) IssueChallenge(ctx context.Context, email string) (int, error) {
	args := m.Called(ctx, email)
	return args.Int(0), args.Error(1)
}

func (m *mockService) VerifyChallenge(ctx context.Context, email string, submitted int, ticketID string) error {
	return m.Called(ctx, email, submitted, ticketID).Error(0)
}

func setupRouter(h *VerificationHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/email", h.SendEmail)
	r.POST("/api/email/verify", h.VerifyEmail)
	return r
}

func doJSON(r http.Handler, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSendEmail(t *testing.T) {
	tests := []struct {
		name       string
		exposeCode bool
		body       string
		setup      func(m *mockService)
		wantStatus int
		wantCode   bool
	}{
		{
			name:       "development exposes code",
			exposeCode: true,
			body:       `{"email":"a@x.com"}`,
			setup: func(m *mockService) {
				m.On("IssueChallenge", mock.Anything, "a@x.com").Return(123456, nil)
			},
			wantStatus: http.StatusOK,
			wantCode:   true,
		},
		{
			name: "production hides code",
			body: `{"email":"a@x.com"}`,
			setup: func(m *mockService) {
				m.On("IssueChallenge", mock.Anything, "a@x.com").Return(123456, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "invalid email",
			body:       `{"email":"nope"}`,
			setup:      func(*mockService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "mail failure",
			body: `{"email":"a@x.com"}`,
			setup: func(m *mockService) {
				m.On("IssueChallenge", mock.Anything, "a@x.com").Return(0, apperror.ErrMailDelivery)
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{}
			tt.setup(svc)
			r := setupRouter(NewVerificationHandler(svc, tt.exposeCode))

			w := doJSON(r, "/api/email", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)

			if w.Code == http.StatusOK {
				var body map[string]any
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				_, has := body["randomNum"]
				assert.Equal(t, tt.wantCode, has)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestVerifyEmail_PassesTicket(t *testing.T) {
	svc := &mockService{}
	svc.On("VerifyChallenge", mock.Anything, "a@x.com", 123456, "ticket-1").Return(nil)
	r := setupRouter(NewVerificationHandler(svc, false))

	w := doJSON(r, "/api/email/verify", `{"email":"a@x.com","code":123456}`,
		&http.Cookie{Name: middleware.SignupCookie, Value: "ticket-1"})

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestVerifyEmail_Mismatch(t *testing.T) {
	svc := &mockService{}
	svc.On("VerifyChallenge", mock.Anything, "a@x.com", 1, "").Return(verification.ErrChallengeMismatch)
	r := setupRouter(NewVerificationHandler(svc, false))

	w := doJSON(r, "/api/email/verify", `{"email":"a@x.com","code":1}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "verification code does not match")
}
