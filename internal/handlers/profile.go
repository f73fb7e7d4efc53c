package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/entrelivros/entrelivros/internal/logging"
	"github.com/entrelivros/entrelivros/internal/models"
	"github.com/entrelivros/entrelivros/internal/services"
)

type ProfileHandler struct {
	userService services.UserServiceInterface
	syncService services.SyncServiceInterface
	async       func(fn func())
}

func NewProfileHandler(userService services.UserServiceInterface, syncService services.SyncServiceInterface) *ProfileHandler {
	return &ProfileHandler{
		userService: userService,
		syncService: syncService,
		async: func(fn func()) {
			go fn()
		},
	}
}

// SetAsync overrides how the post-edit snapshot sync is scheduled. Tests use
// it to run the sync inline.
func (h *ProfileHandler) SetAsync(fn func(fn func())) {
	h.async = fn
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Nickname    *string `json:"nickname"`
	PhotoURL    *string `json:"photo_url"`
	Bio         *string `json:"bio"`
	Location    *string `json:"location"`
}

type ProfileResponse struct {
	User *models.User `json:"user"`
}

type SnapshotResponse struct {
	User *models.ProfileSnapshot `json:"user"`
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	writeJSON(w, http.StatusOK, ProfileResponse{User: user})
}

// Update patches the canonical profile, then schedules the snapshot sync in
// the background. The sync is not transactional with the edit: friends may
// briefly see stale snapshot fields.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.DisplayName != nil && len(*req.DisplayName) > 100 {
		writeError(w, http.StatusBadRequest, "Display name too long")
		return
	}
	if req.Bio != nil && len(*req.Bio) > 1000 {
		writeError(w, http.StatusBadRequest, "Bio too long")
		return
	}

	updated, err := h.userService.UpdateProfile(r.Context(), user.ID, models.UpdateProfileParams{
		DisplayName: req.DisplayName,
		Nickname:    req.Nickname,
		PhotoURL:    req.PhotoURL,
		Bio:         req.Bio,
		Location:    req.Location,
	})
	if errors.Is(err, services.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		log.Printf("Error updating profile: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	userID := user.ID
	h.async(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := h.syncService.SyncUserSnapshot(ctx, userID); err != nil {
			logging.Error("Failed to sync profile snapshots", map[string]interface{}{
				"error":   err.Error(),
				"user_id": userID.String(),
			})
		}
	})

	writeJSON(w, http.StatusOK, ProfileResponse{User: updated})
}

func (h *ProfileHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	snapshot, err := h.userService.Snapshot(r.Context(), id)
	if errors.Is(err, services.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		log.Printf("Error loading snapshot: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, SnapshotResponse{User: snapshot})
}
