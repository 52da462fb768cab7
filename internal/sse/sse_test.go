package sse

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func collect(t *testing.T, input string) []Frame {
	t.Helper()
	var frames []Frame
	err := Parse(strings.NewReader(input), func(f Frame) error {
		frames = append(frames, f)
		return nil
	})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return frames
}

func TestParseNamedFrames(t *testing.T) {
	input := "id: 1\nevent: action\ndata: {\"actionType\":\"plan\",\"message\":\"planning\"}\n\n" +
		"id: 2\nevent: output\ndata: {\"actionType\":\"write\",\"message\":\"done\"}\n\n"

	frames := collect(t, input)
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	if frames[0].ID != "1" || frames[0].Event != "action" {
		t.Errorf("unexpected first frame: %+v", frames[0])
	}
	if frames[1].Data != `{"actionType":"write","message":"done"}` {
		t.Errorf("unexpected data: %q", frames[1].Data)
	}
}

func TestParseMultiLineDataAndComments(t *testing.T) {
	input := ": keep-alive\n\ndata: line one\ndata: line two\r\n\r\n"

	frames := collect(t, input)
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
	if frames[0].Data != "line one\nline two" {
		t.Errorf("expected joined data, got %q", frames[0].Data)
	}
}

func TestParseDropsUnterminatedFrameAtEOF(t *testing.T) {
	frames := collect(t, "data: whole\n\nevent: input\ndata: tail")
	if len(frames) != 1 || frames[0].Data != "whole" {
		t.Fatalf("expected only the terminated frame, got %+v", frames)
	}
}

func TestParseIgnoresFramesWithoutData(t *testing.T) {
	frames := collect(t, "event: action\nid: 7\n\ndata: kept\n\n")
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %+v", frames)
	}
	if frames[0].Event != "" || frames[0].ID != "" || frames[0].Data != "kept" {
		t.Errorf("fields leaked from the dataless frame: %+v", frames[0])
	}
}

func TestParseStopsOnHandlerError(t *testing.T) {
	stop := errors.New("stop")
	calls := 0
	err := Parse(strings.NewReader("data: a\n\ndata: b\n\n"), func(Frame) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected handler error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected parsing to stop after first frame, got %d calls", calls)
	}
}

func TestWriteThenParse(t *testing.T) {
	var buf bytes.Buffer
	in := Frame{ID: "abc", Event: "message", Data: "first\nsecond"}
	if err := Write(&buf, in); err != nil {
		t.Fatal(err)
	}
	if err := WriteComment(&buf, "ping"); err != nil {
		t.Fatal(err)
	}

	frames := collect(t, buf.String())
	if len(frames) != 1 || frames[0] != in {
		t.Fatalf("expected %+v, got %+v", in, frames)
	}
}
