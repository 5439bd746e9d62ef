package inbound

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hatolabs/hato/internal/pkg/jwt"
)

// StreamInbox streams the caller's in-app notifications over SSE.
func (h *HTTPEndpoint) StreamInbox(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	ctx := r.Context()

	claims := jwt.GetAuth(ctx)
	if claims == nil {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		slog.ErrorContext(ctx, "failed to send response connected", "error", err)
		return
	}
	flusher.Flush()

	stream := h.uc.StreamInbox(ctx, claims.UserID)

	// heartbeat ping, so proxies won't drop idle connections.
	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case evt, ok := <-stream:
			if !ok {
				return
			}
			payload, err := json.Marshal(evt)
			if err != nil {
				slog.ErrorContext(ctx, "failed to marshal data", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: notification\ndata: %s\n\n", payload); err != nil {
				slog.ErrorContext(ctx, "failed to send response data", "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

// StreamLifecycle streams engine lifecycle events (created, sent,
// failed, ...) for operational dashboards.
func (h *HTTPEndpoint) StreamLifecycle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	ctx := r.Context()

	if jwt.GetAuth(ctx) == nil {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		slog.ErrorContext(ctx, "failed to send response connected", "error", err)
		return
	}
	flusher.Flush()

	stream := h.uc.StreamLifecycle(ctx)

	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case evt, ok := <-stream:
			if !ok {
				return
			}
			payload, err := json.Marshal(evt)
			if err != nil {
				slog.ErrorContext(ctx, "failed to marshal data", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: lifecycle\ndata: %s\n\n", payload); err != nil {
				slog.ErrorContext(ctx, "failed to send response data", "error", err)
				return
			}
			flusher.Flush()
		}
	}
}
