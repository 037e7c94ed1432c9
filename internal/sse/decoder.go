package sse

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"strings"
)

// Message is one decoded data line.
type Message struct {
	Type string
	Data json.RawMessage
}

// Decode unmarshals the message payload into v.
func (m Message) Decode(v any) error {
	return json.Unmarshal(m.Data, v)
}

// Decoder reads frames from a byte stream the way a browser client of the
// generate endpoint does: buffer until "\n\n", keep "data:" lines, parse JSON,
// silently drop anything malformed.
type Decoder struct {
	scanner *bufio.Scanner
	pending []Message
}

func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	scanner.Split(splitFrames)
	return &Decoder{scanner: scanner}
}

// Next returns the next well-formed message, or io.EOF once the stream ends.
func (d *Decoder) Next() (Message, error) {
	for len(d.pending) == 0 {
		if !d.scanner.Scan() {
			if err := d.scanner.Err(); err != nil {
				return Message{}, err
			}
			return Message{}, io.EOF
		}
		d.pending = parseFrame(d.scanner.Text())
	}
	msg := d.pending[0]
	d.pending = d.pending[1:]
	return msg, nil
}

// All drains the stream and returns every message in order.
func (d *Decoder) All() ([]Message, error) {
	var out []Message
	for {
		msg, err := d.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, msg)
	}
}

// splitFrames is a bufio.SplitFunc yielding "\n\n"-delimited frames.
// A trailing partial frame at EOF is discarded.
func splitFrames(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if i := bytes.Index(data, []byte("\n\n")); i >= 0 {
		return i + 2, data[:i], nil
	}
	if atEOF {
		return len(data), nil, nil
	}
	return 0, nil, nil
}

func parseFrame(frame string) []Message {
	var msgs []Message
	for _, line := range strings.Split(frame, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "data:") {
			continue
		}
		payload := strings.TrimPrefix(trimmed, "data:")
		payload = strings.TrimPrefix(payload, " ")
		if payload == "" {
			continue
		}
		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal([]byte(payload), &head); err != nil {
			continue
		}
		msgs = append(msgs, Message{Type: head.Type, Data: json.RawMessage(payload)})
	}
	return msgs
}
