package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const defaultKeepalive = 25 * time.Second

// handleSubmissionStream pushes the caller's full submission list on connect
// and again after every event that concerns them.
func (h *handler) handleSubmissionStream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	user := userFrom(r.Context())
	sub := h.feed.Subscribe(user.ID)
	defer h.feed.Unsubscribe(sub.ID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func() bool {
		subs, err := h.svc.ListUserSubmissions(r.Context(), user)
		if err != nil {
			h.logger.Warn("stream submissions", zap.String("user_id", user.ID), zap.Error(err))
			return writeSSE(w, rc, "error", map[string]any{"message": "failed to load submissions"}) == nil
		}
		return writeSSE(w, rc, "submissions", map[string]any{
			"submissions": mapSubmissionList(subs),
		}) == nil
	}

	if !send() {
		return
	}

	keepalive := h.keepalive
	if keepalive <= 0 {
		keepalive = defaultKeepalive
	}
	ticker := time.NewTicker(keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case _, ok := <-sub.Events:
			if !ok {
				return
			}
			if !send() {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func writeSSE(w http.ResponseWriter, rc *http.ResponseController, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "event: %s\ndata: %s\n\n", event, data)
	if _, err := w.Write(buf.Bytes()); err != nil {
		return err
	}
	return rc.Flush()
}
