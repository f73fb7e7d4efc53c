package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/entrelivros/entrelivros/internal/models"
	"github.com/entrelivros/entrelivros/internal/services"
)

func assertErrorResponse(t *testing.T, rr *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("expected status %d, got %d", status, rr.Code)
	}
	if ct := rr.Result().Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected content type application/json, got %q", ct)
	}

	var response ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if response.Error != message {
		t.Fatalf("expected error %q, got %q", message, response.Error)
	}
}

func withUser(req *http.Request, user *models.User) *http.Request {
	return req.WithContext(SetUserInContext(req.Context(), user))
}

type mockFriendshipService struct {
	SendRequestFunc           func(ctx context.Context, fromID, toID uuid.UUID) error
	AcceptRequestFunc         func(ctx context.Context, userID, counterpartID uuid.UUID) error
	RejectRequestFunc         func(ctx context.Context, userID, counterpartID uuid.UUID) error
	RemoveFriendFunc          func(ctx context.Context, userID, counterpartID uuid.UUID) error
	CancelSentRequestFunc     func(ctx context.Context, userID, recordID uuid.UUID) error
	CancelAllSentRequestsFunc func(ctx context.Context, userID uuid.UUID) error
}

func (m *mockFriendshipService) SendRequest(ctx context.Context, fromID, toID uuid.UUID) error {
	return m.SendRequestFunc(ctx, fromID, toID)
}

func (m *mockFriendshipService) AcceptRequest(ctx context.Context, userID, counterpartID uuid.UUID) error {
	return m.AcceptRequestFunc(ctx, userID, counterpartID)
}

func (m *mockFriendshipService) RejectRequest(ctx context.Context, userID, counterpartID uuid.UUID) error {
	return m.RejectRequestFunc(ctx, userID, counterpartID)
}

func (m *mockFriendshipService) RemoveFriend(ctx context.Context, userID, counterpartID uuid.UUID) error {
	return m.RemoveFriendFunc(ctx, userID, counterpartID)
}

func (m *mockFriendshipService) CancelSentRequest(ctx context.Context, userID, recordID uuid.UUID) error {
	return m.CancelSentRequestFunc(ctx, userID, recordID)
}

func (m *mockFriendshipService) CancelAllSentRequests(ctx context.Context, userID uuid.UUID) error {
	return m.CancelAllSentRequestsFunc(ctx, userID)
}

type mockQueryService struct {
	ListFriendsFunc          func(ctx context.Context, userID uuid.UUID, pageSize int, cursor string) (*models.FriendPage, error)
	ListIncomingRequestsFunc func(ctx context.Context, userID uuid.UUID) ([]models.Relationship, error)
	ListOutgoingRequestsFunc func(ctx context.Context, userID uuid.UUID) ([]models.Relationship, error)
}

func (m *mockQueryService) ListFriends(ctx context.Context, userID uuid.UUID, pageSize int, cursor string) (*models.FriendPage, error) {
	return m.ListFriendsFunc(ctx, userID, pageSize, cursor)
}

func (m *mockQueryService) ListIncomingRequests(ctx context.Context, userID uuid.UUID) ([]models.Relationship, error) {
	return m.ListIncomingRequestsFunc(ctx, userID)
}

func (m *mockQueryService) ListOutgoingRequests(ctx context.Context, userID uuid.UUID) ([]models.Relationship, error) {
	return m.ListOutgoingRequestsFunc(ctx, userID)
}

type mockUserService struct {
	CreateFunc          func(ctx context.Context, params models.CreateUserParams) (*models.User, error)
	GetByIDFunc         func(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmailFunc      func(ctx context.Context, email string) (*models.User, error)
	UpdateProfileFunc   func(ctx context.Context, userID uuid.UUID, params models.UpdateProfileParams) (*models.User, error)
	SnapshotFunc        func(ctx context.Context, id uuid.UUID) (*models.ProfileSnapshot, error)
	TouchLastActiveFunc func(ctx context.Context, userID uuid.UUID) error
}

func (m *mockUserService) Create(ctx context.Context, params models.CreateUserParams) (*models.User, error) {
	return m.CreateFunc(ctx, params)
}

func (m *mockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *mockUserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.GetByEmailFunc(ctx, email)
}

func (m *mockUserService) UpdateProfile(ctx context.Context, userID uuid.UUID, params models.UpdateProfileParams) (*models.User, error) {
	return m.UpdateProfileFunc(ctx, userID, params)
}

func (m *mockUserService) Snapshot(ctx context.Context, id uuid.UUID) (*models.ProfileSnapshot, error) {
	return m.SnapshotFunc(ctx, id)
}

func (m *mockUserService) TouchLastActive(ctx context.Context, userID uuid.UUID) error {
	return m.TouchLastActiveFunc(ctx, userID)
}

type mockAuthService struct {
	HashPasswordFunc    func(password string) (string, error)
	VerifyPasswordFunc  func(hash, password string) bool
	CreateSessionFunc   func(ctx context.Context, userID uuid.UUID) (string, error)
	ValidateSessionFunc func(ctx context.Context, token string) (*models.User, error)
	DeleteSessionFunc   func(ctx context.Context, token string) error
}

func (m *mockAuthService) HashPassword(password string) (string, error) {
	return m.HashPasswordFunc(password)
}

func (m *mockAuthService) VerifyPassword(hash, password string) bool {
	return m.VerifyPasswordFunc(hash, password)
}

func (m *mockAuthService) CreateSession(ctx context.Context, userID uuid.UUID) (string, error) {
	return m.CreateSessionFunc(ctx, userID)
}

func (m *mockAuthService) ValidateSession(ctx context.Context, token string) (*models.User, error) {
	return m.ValidateSessionFunc(ctx, token)
}

func (m *mockAuthService) DeleteSession(ctx context.Context, token string) error {
	return m.DeleteSessionFunc(ctx, token)
}

type mockSyncService struct {
	SyncUserSnapshotFunc func(ctx context.Context, userID uuid.UUID) error
}

func (m *mockSyncService) SyncUserSnapshot(ctx context.Context, userID uuid.UUID) error {
	return m.SyncUserSnapshotFunc(ctx, userID)
}

type mockNotificationService struct {
	CreateFunc      func(ctx context.Context, params models.CreateNotificationParams) error
	ListFunc        func(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error)
	MarkReadFunc    func(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllReadFunc func(ctx context.Context, userID uuid.UUID) error
	UnreadCountFunc func(ctx context.Context, userID uuid.UUID) (int, error)
}

func (m *mockNotificationService) Create(ctx context.Context, params models.CreateNotificationParams) error {
	return m.CreateFunc(ctx, params)
}

func (m *mockNotificationService) List(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	return m.ListFunc(ctx, userID, limit)
}

func (m *mockNotificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return m.MarkReadFunc(ctx, userID, notificationID)
}

func (m *mockNotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return m.MarkAllReadFunc(ctx, userID)
}

func (m *mockNotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return m.UnreadCountFunc(ctx, userID)
}

var _ services.FriendshipServiceInterface = (*mockFriendshipService)(nil)
var _ services.FriendQueryServiceInterface = (*mockQueryService)(nil)
var _ services.UserServiceInterface = (*mockUserService)(nil)
var _ services.AuthServiceInterface = (*mockAuthService)(nil)
var _ services.SyncServiceInterface = (*mockSyncService)(nil)
var _ services.NotificationServiceInterface = (*mockNotificationService)(nil)
