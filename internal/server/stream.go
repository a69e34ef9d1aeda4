package server

import (
	"fmt"
	"net/http"
	"time"
)

// DefaultStreamFPS is the MJPEG frame rate when none is configured.
const DefaultStreamFPS = 15

// previewSource provides the latest JPEG-encoded camera frame.
type previewSource interface {
	Preview() ([]byte, bool)
}

// StreamHandler serves MJPEG frames from the session's camera preview.
// It never touches the camera itself, so streaming does not compete with
// the detector for frames.
type StreamHandler struct {
	source previewSource
	fps    int
}

// NewStreamHandler creates a new StreamHandler over source.
func NewStreamHandler(source previewSource, fps int) *StreamHandler {
	if fps <= 0 {
		fps = DefaultStreamFPS
	}
	return &StreamHandler{source: source, fps: fps}
}

// ServeHTTP streams MJPEG frames to connected clients.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(time.Second / time.Duration(h.fps))
	defer ticker.Stop()

	var last []byte
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		frame, ok := h.source.Preview()
		if !ok || len(frame) == 0 || sameFrame(frame, last) {
			continue
		}
		last = frame

		if err := writePart(w, frame); err != nil {
			return
		}

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}

// sameFrame reports whether a and b are the same stored preview buffer.
// Each stored preview is a fresh slice, so identity is enough.
func sameFrame(a, b []byte) bool {
	return len(a) == len(b) && len(a) > 0 && &a[0] == &b[0]
}

func writePart(w http.ResponseWriter, frame []byte) error {
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(frame)); err != nil {
		return err
	}
	if _, err := w.Write(frame); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\r\n")
	return err
}
