// internal/stream/client.go
package stream

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/brandlens/brandlens-workflows/internal/models"
)

// WireEvent is the decoded form of one stream frame. Data stays raw so the
// reducer can decode it per event type.
type WireEvent struct {
	Type      models.EventType `json:"type"`
	Stage     models.Stage     `json:"stage"`
	Data      json.RawMessage  `json:"data,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Decoder splits a text/event-stream byte stream into discrete events.
type Decoder struct {
	scanner *bufio.Scanner
}

func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	scanner.Split(splitFrames)
	return &Decoder{scanner: scanner}
}

// Next returns the next decoded event, or io.EOF when the stream ends.
func (d *Decoder) Next() (*WireEvent, error) {
	for d.scanner.Scan() {
		frame := d.scanner.Text()
		payload := dataPayload(frame)
		if payload == "" {
			// Frames without a data line (stray blank lines) are skipped
			continue
		}

		var event WireEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			return nil, fmt.Errorf("failed to decode event payload: %w", err)
		}
		return &event, nil
	}
	if err := d.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// splitFrames is a bufio.SplitFunc producing one frame per blank-line
// boundary.
func splitFrames(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.Index(data, []byte("\n\n")); i >= 0 {
		return i + 2, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// dataPayload extracts the concatenated data: lines of a frame.
func dataPayload(frame string) string {
	var parts []string
	for _, line := range strings.Split(frame, "\n") {
		if strings.HasPrefix(line, "data:") {
			parts = append(parts, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
	return strings.Join(parts, "")
}
