package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/entrelivros/entrelivros/internal/models"
	"github.com/entrelivros/entrelivros/internal/services"
)

func TestNotificationHandler_List_Success(t *testing.T) {
	handler := NewNotificationHandler(&mockNotificationService{
		ListFunc: func(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
			if limit != 10 {
				t.Fatalf("expected limit 10, got %d", limit)
			}
			return []models.Notification{{ID: uuid.New(), Type: models.NotificationTypeFriendRequest}}, nil
		},
	})

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/notifications?limit=10", nil), &models.User{ID: uuid.New()})
	rr := httptest.NewRecorder()
	handler.List(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestNotificationHandler_List_InvalidLimit(t *testing.T) {
	handler := NewNotificationHandler(&mockNotificationService{})
	req := withUser(httptest.NewRequest(http.MethodGet, "/api/notifications?limit=-1", nil), &models.User{ID: uuid.New()})
	rr := httptest.NewRecorder()
	handler.List(rr, req)
	assertErrorResponse(t, rr, http.StatusBadRequest, "Invalid limit")
}

func TestNotificationHandler_MarkRead_NotFound(t *testing.T) {
	id := uuid.New()
	handler := NewNotificationHandler(&mockNotificationService{
		MarkReadFunc: func(ctx context.Context, userID, notificationID uuid.UUID) error {
			return services.ErrNotificationNotFound
		},
	})

	req := withUser(httptest.NewRequest(http.MethodPut, "/api/notifications/"+id.String()+"/read", nil), &models.User{ID: uuid.New()})
	req.SetPathValue("id", id.String())
	rr := httptest.NewRecorder()
	handler.MarkRead(rr, req)
	assertErrorResponse(t, rr, http.StatusNotFound, "Notification not found")
}

func TestNotificationHandler_UnreadCount(t *testing.T) {
	handler := NewNotificationHandler(&mockNotificationService{
		UnreadCountFunc: func(ctx context.Context, userID uuid.UUID) (int, error) {
			return 7, nil
		},
	})

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/notifications/unread-count", nil), &models.User{ID: uuid.New()})
	rr := httptest.NewRecorder()
	handler.UnreadCount(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := rr.Body.String(); got != "{\"count\":7}\n" {
		t.Fatalf("unexpected body: %q", got)
	}
}

func TestEventsHandler_Unauthorized(t *testing.T) {
	handler := NewEventsHandler(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/friends/events", nil)
	rr := httptest.NewRecorder()
	handler.Stream(rr, req)
	assertErrorResponse(t, rr, http.StatusUnauthorized, "Authentication required")
}
