// File: internal/notification/handler_test.go
package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Brcolf/naarscars-notify/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingService struct {
	feedSections []DaySection
	badgeCounts  map[Surface]int
	markedRead   []uuid.UUID
	markReadErr  error
	markAllCount int64
	refreshed    int
}

func (s *recordingService) Feed(ctx context.Context, ownerID uuid.UUID) ([]DaySection, error) {
	return s.feedSections, nil
}

func (s *recordingService) History(ctx context.Context, ownerID uuid.UUID, page, pageSize int) ([]Notification, *common.Pagination, error) {
	return nil, common.NewPagination(0, page, pageSize), nil
}

func (s *recordingService) BadgeCounts() map[Surface]int {
	return s.badgeCounts
}

func (s *recordingService) MarkRead(ctx context.Context, ownerID, id uuid.UUID) error {
	s.markedRead = append(s.markedRead, id)
	return s.markReadErr
}

func (s *recordingService) MarkAllRead(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	return s.markAllCount, nil
}

func (s *recordingService) Refresh(ctx context.Context) error {
	s.refreshed++
	return nil
}

func setupHandlerRouter(svc Service, ownerID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("/notifications")
	if ownerID != uuid.Nil {
		group.Use(func(c *gin.Context) {
			c.Set(common.OwnerIDKey, ownerID)
			c.Next()
		})
	}
	NewHandler(svc, zap.NewNop()).RegisterRoutes(group)
	return router
}

func TestHandler_GetFeed(t *testing.T) {
	svc := &recordingService{feedSections: []DaySection{{Title: "Today"}}}
	router := setupHandlerRouter(svc, uuid.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data []DaySection `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Today", body.Data[0].Title)
}

func TestHandler_RequiresOwner(t *testing.T) {
	svc := &recordingService{}
	router := setupHandlerRouter(svc, uuid.Nil)

	for _, path := range []string{"/notifications", "/notifications/badges", "/notifications/history"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestHandler_MarkRead(t *testing.T) {
	svc := &recordingService{}
	router := setupHandlerRouter(svc, uuid.New())

	id := uuid.New()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/notifications/"+id.String()+"/mark-read", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []uuid.UUID{id}, svc.markedRead)
}

func TestHandler_MarkRead_BadID(t *testing.T) {
	svc := &recordingService{}
	router := setupHandlerRouter(svc, uuid.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/notifications/not-a-uuid/mark-read", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.markedRead)
}

func TestHandler_MarkAllRead(t *testing.T) {
	svc := &recordingService{markAllCount: 7}
	router := setupHandlerRouter(svc, uuid.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/notifications/mark-all-read", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data struct {
			MarkedCount int64 `json:"marked_count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(7), body.Data.MarkedCount)
}

func TestHandler_Refresh(t *testing.T) {
	svc := &recordingService{}
	router := setupHandlerRouter(svc, uuid.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/notifications/refresh", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, svc.refreshed)
}

func TestHandler_GetBadges(t *testing.T) {
	svc := &recordingService{badgeCounts: map[Surface]int{SurfaceBell: 4}}
	router := setupHandlerRouter(svc, uuid.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/notifications/badges", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data map[Surface]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 4, body.Data[SurfaceBell])
}
