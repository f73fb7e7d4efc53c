package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/entrelivros/entrelivros/internal/models"
	"github.com/entrelivros/entrelivros/internal/services"
)

type FriendHandler struct {
	friendships services.FriendshipServiceInterface
	queries     services.FriendQueryServiceInterface
}

func NewFriendHandler(friendships services.FriendshipServiceInterface, queries services.FriendQueryServiceInterface) *FriendHandler {
	return &FriendHandler{
		friendships: friendships,
		queries:     queries,
	}
}

type SendRequestRequest struct {
	FriendID string `json:"friend_id"`
}

type RequestListResponse struct {
	Requests []models.Relationship `json:"requests"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func (h *FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	pageSize := 0
	if v := r.URL.Query().Get("page_size"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "Invalid page size")
			return
		}
		pageSize = parsed
	}
	cursor := r.URL.Query().Get("cursor")

	page, err := h.queries.ListFriends(r.Context(), user.ID, pageSize, cursor)
	if errors.Is(err, services.ErrInvalidCursor) {
		writeError(w, http.StatusBadRequest, "Invalid cursor")
		return
	}
	if err != nil {
		log.Printf("Error listing friends: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *FriendHandler) ListIncoming(w http.ResponseWriter, r *http.Request) {
	h.listRequests(w, r, h.queries.ListIncomingRequests)
}

func (h *FriendHandler) ListOutgoing(w http.ResponseWriter, r *http.Request) {
	h.listRequests(w, r, h.queries.ListOutgoingRequests)
}

func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req SendRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	friendID, err := uuid.Parse(req.FriendID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid friend ID")
		return
	}

	err = h.friendships.SendRequest(r.Context(), user.ID, friendID)
	if errors.Is(err, services.ErrCannotFriendSelf) {
		writeError(w, http.StatusBadRequest, "Cannot send friend request to yourself")
		return
	}
	if errors.Is(err, services.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if errors.Is(err, services.ErrRelationshipExists) {
		writeError(w, http.StatusConflict, "Friend request already exists")
		return
	}
	if err != nil {
		log.Printf("Error sending friend request: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, MessageResponse{Message: "Friend request sent"})
}

func (h *FriendHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	counterpartID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := h.friendships.AcceptRequest(r.Context(), user.ID, counterpartID); err != nil {
		log.Printf("Error accepting friend request: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Friend request accepted"})
}

func (h *FriendHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	counterpartID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := h.friendships.RejectRequest(r.Context(), user.ID, counterpartID); err != nil {
		log.Printf("Error rejecting friend request: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Friend request rejected"})
}

func (h *FriendHandler) Remove(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	counterpartID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := h.friendships.RemoveFriend(r.Context(), user.ID, counterpartID); err != nil {
		log.Printf("Error removing friend: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Friend removed"})
}

func (h *FriendHandler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	recordID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	err = h.friendships.CancelSentRequest(r.Context(), user.ID, recordID)
	if errors.Is(err, services.ErrRelationshipNotFound) {
		writeError(w, http.StatusNotFound, "Friend request not found")
		return
	}
	if errors.Is(err, services.ErrNotRequestSender) {
		writeError(w, http.StatusForbidden, "Only the sender can cancel this request")
		return
	}
	if err != nil {
		log.Printf("Error canceling friend request: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Friend request canceled"})
}

func (h *FriendHandler) CancelAllRequests(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := h.friendships.CancelAllSentRequests(r.Context(), user.ID); err != nil {
		// Earlier deletions stay applied; report the partial failure.
		log.Printf("Error canceling sent requests: %v", err)
		writeError(w, http.StatusInternalServerError, "Some requests could not be canceled")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Sent requests canceled"})
}

func (h *FriendHandler) listRequests(w http.ResponseWriter, r *http.Request, list func(ctx context.Context, userID uuid.UUID) ([]models.Relationship, error)) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	requests, err := list(r.Context(), user.ID)
	if err != nil {
		log.Printf("Error listing requests: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, RequestListResponse{Requests: requests})
}
