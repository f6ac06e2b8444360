package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"anoa.com/handchatter/internal/modules/tutor/dto"
	tutor "anoa.com/handchatter/internal/modules/tutor/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) List(ctx context.Context, query string) ([]dto.TutorCard, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.TutorCard), args.Error(1)
}

func (m *mockService) Detail(ctx context.Context, tutorIdx uint) (*dto.TutorCard, error) {
	args := m.Called(ctx, tutorIdx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.TutorCard), args.Error(1)
}

func setupRouter(m *mockService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewTutorHandler(m)
	r := gin.New()
	r.GET("/api", h.List)
	r.GET("/api/tutors/:tutorIdx", h.Detail)
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestList(t *testing.T) {
	m := &mockService{}
	m.On("List", mock.Anything, "").Return([]dto.TutorCard{{TutorIdx: 2, Nickname: "Bobby"}}, nil)
	m.On("List", mock.Anything, "sign").Return([]dto.TutorCard{{TutorIdx: 2, Nickname: "Bobby"}}, nil)
	m.On("List", mock.Anything, "piano").Return(nil, tutor.ErrNoTutors)
	r := setupRouter(m)

	w := get(r, "/api")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tutorsInfo"`)

	w = get(r, "/api?q=sign")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"searchTutorsInfo"`)

	w = get(r, "/api?q=piano")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDetail(t *testing.T) {
	m := &mockService{}
	m.On("Detail", mock.Anything, uint(2)).Return(&dto.TutorCard{TutorIdx: 2, Nickname: "Bobby"}, nil)
	m.On("Detail", mock.Anything, uint(9)).Return(nil, tutor.ErrTutorNotFound)
	r := setupRouter(m)

	w := get(r, "/api/tutors/2")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tutorInfo"`)

	assert.Equal(t, http.StatusNotFound, get(r, "/api/tutors/9").Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/api/tutors/abc").Code)
	m.AssertNotCalled(t, "Detail", mock.Anything, uint(0))
}
