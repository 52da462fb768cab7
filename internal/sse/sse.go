// Package sse reads and writes text/event-stream frames.
package sse

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// maxLineSize bounds a single data line. Reports can be long markdown blobs.
const maxLineSize = 1024 * 1024

// Frame is one dispatched server-sent event
type Frame struct {
	ID    string
	Event string
	Data  string
}

// Handler is called for each complete frame. Returning an error stops parsing.
type Handler func(Frame) error

// Parse reads frames from r until EOF, an error, or handler returns non-nil.
// A clean EOF returns nil. Frames without a data field are discarded, as is
// a frame cut off by EOF before its terminating blank line.
func Parse(r io.Reader, handler Handler) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		frame   Frame
		hasData bool
	)

	dispatch := func() error {
		f, ok := frame, hasData
		frame = Frame{}
		hasData = false
		if !ok {
			return nil
		}
		return handler(f)
	}

	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")

		// Empty line marks end of event
		if line == "" {
			if err := dispatch(); err != nil {
				return err
			}
			continue
		}

		// Comments, used by servers as keep-alives
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value := splitField(line)
		switch field {
		case "event":
			frame.Event = value
		case "data":
			if hasData {
				frame.Data += "\n" + value
			} else {
				frame.Data = value
				hasData = true
			}
		case "id":
			frame.ID = value
		}
		// retry and unknown fields are ignored
	}

	return scanner.Err()
}

func splitField(line string) (string, string) {
	field, value, found := strings.Cut(line, ":")
	if !found {
		return line, ""
	}
	return field, strings.TrimPrefix(value, " ")
}

// Write encodes frame to w. Multi-line data is split across data lines.
func Write(w io.Writer, frame Frame) error {
	var b strings.Builder
	if frame.ID != "" {
		fmt.Fprintf(&b, "id: %s\n", frame.ID)
	}
	if frame.Event != "" {
		fmt.Fprintf(&b, "event: %s\n", frame.Event)
	}
	for _, line := range strings.Split(frame.Data, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteComment writes a keep-alive comment line
func WriteComment(w io.Writer, text string) error {
	_, err := fmt.Fprintf(w, ": %s\n\n", text)
	return err
}
