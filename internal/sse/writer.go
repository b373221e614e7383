// Package sse writes Server-Sent Events to an http.ResponseWriter.
package sse

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Done is the data payload of the event that marks a complete stream.
const Done = "[DONE]"

// Writer emits "data:" events, flushing after each one so the caller sees them immediately.
type Writer struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

// NewWriter wraps w. Headers are not touched; see SetHeaders.
func NewWriter(w http.ResponseWriter) *Writer {
	return &Writer{
		w:  w,
		rc: http.NewResponseController(w),
	}
}

// SetHeaders sets the standard event-stream response headers.
func SetHeaders(h http.Header) {
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
}

// WriteData writes one event carrying data verbatim.
// data must not contain newlines; json payloads never do.
func (w *Writer) WriteData(data []byte) error {
	buf := make([]byte, 0, len(data)+8)
	buf = append(buf, "data: "...)
	buf = append(buf, data...)
	buf = append(buf, "\n\n"...)

	if _, err := w.w.Write(buf); err != nil {
		return fmt.Errorf("could not write event: %w", err)
	}
	return w.flush()
}

// WriteJSON encodes v and writes it as one event.
// HTML characters are left unescaped so the payload matches what browsers' JSON.stringify produces.
func (w *Writer) WriteJSON(v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("could not encode event: %w", err)
	}
	return w.WriteData(bytes.TrimRight(buf.Bytes(), "\n"))
}

// WriteDone writes the terminal sentinel event.
func (w *Writer) WriteDone() error {
	return w.WriteData([]byte(Done))
}

func (w *Writer) flush() error {
	if err := w.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return fmt.Errorf("could not flush event: %w", err)
	}
	return nil
}
