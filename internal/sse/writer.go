// Package sse frames progress events as server-sent events and reads them back.
//
// A frame is a single "data: <json>" line followed by a blank line. No event
// names, ids or retry hints are emitted.
package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const dataPrefix = "data: "

// Encode serializes v as one SSE frame.
func Encode(v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event: %w", err)
	}
	frame := make([]byte, 0, len(dataPrefix)+len(payload)+2)
	frame = append(frame, dataPrefix...)
	frame = append(frame, payload...)
	frame = append(frame, '\n', '\n')
	return frame, nil
}

// Writer writes frames to an HTTP response, flushing after each one.
type Writer struct {
	w       io.Writer
	flusher http.Flusher
}

// NewWriter wraps w. If w implements http.Flusher every frame is flushed immediately.
func NewWriter(w io.Writer) *Writer {
	flusher, _ := w.(http.Flusher)
	return &Writer{w: w, flusher: flusher}
}

// WriteEvent writes v as a single frame.
func (sw *Writer) WriteEvent(v any) error {
	frame, err := Encode(v)
	if err != nil {
		return err
	}
	if _, err := sw.w.Write(frame); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	if sw.flusher != nil {
		sw.flusher.Flush()
	}
	return nil
}
