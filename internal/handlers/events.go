package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/entrelivros/entrelivros/internal/models"
	"github.com/entrelivros/entrelivros/internal/services"
)

// EventsHandler streams live friend-list updates over server-sent events.
// Each event carries the full recomputed result set for one of the three
// views, never a delta.
type EventsHandler struct {
	subscriptions services.SubscriptionServiceInterface
}

func NewEventsHandler(subscriptions services.SubscriptionServiceInterface) *EventsHandler {
	return &EventsHandler{subscriptions: subscriptions}
}

type eventPayload struct {
	View  string                `json:"view"`
	Items []models.Relationship `json:"items"`
}

// Stream subscribes the session user to the friends, incoming and outgoing
// views and forwards every full-snapshot callback as one SSE event. All
// three subscriptions are released when the client disconnects.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Callbacks arrive from subscription goroutines; serialize writes to
	// the response through one channel.
	events := make(chan eventPayload, 8)
	send := func(view string) func([]models.Relationship) {
		return func(items []models.Relationship) {
			select {
			case events <- eventPayload{View: view, Items: items}:
			case <-r.Context().Done():
			}
		}
	}

	friendsSub, err := h.subscriptions.SubscribeFriends(r.Context(), user.ID, send("friends"))
	if err != nil {
		log.Printf("Error subscribing to friends: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer friendsSub.Unsubscribe()

	incomingSub, err := h.subscriptions.SubscribeIncoming(r.Context(), user.ID, send("incoming"))
	if err != nil {
		log.Printf("Error subscribing to incoming requests: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer incomingSub.Unsubscribe()

	outgoingSub, err := h.subscriptions.SubscribeOutgoing(r.Context(), user.ID, send("outgoing"))
	if err != nil {
		log.Printf("Error subscribing to outgoing requests: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer outgoingSub.Unsubscribe()

	for {
		select {
		case <-r.Context().Done():
			return
		case payload := <-events:
			data, err := json.Marshal(payload)
			if err != nil {
				log.Printf("Error encoding event: %v", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", payload.View, data)
			flusher.Flush()
		}
	}
}
