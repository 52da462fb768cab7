package tui

import "testing"

func TestToastQueue(t *testing.T) {
	queue := NewToastQueue()
	queue.Push(Toast{Message: "hi"})
	if queue.Len() != 1 {
		t.Fatal("expected toast")
	}
	if queue.Push(Toast{Message: "hi"}) {
		t.Fatal("expected repeated toast to be dropped")
	}

	queue.Push(Toast{Message: "boom", Level: ToastError})
	first, _ := queue.Pop()
	if first.Message != "hi" {
		t.Fatalf("expected oldest first, got %s", first.Message)
	}
	next, ok := queue.Peek()
	if !ok || next.Level != ToastError {
		t.Fatalf("unexpected next toast: %+v", next)
	}
}

func TestToastQueueLimit(t *testing.T) {
	queue := NewToastQueue()
	for _, msg := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		queue.Push(Toast{Message: msg})
	}
	if queue.Len() != 5 {
		t.Fatalf("expected 5 toasts, got %d", queue.Len())
	}
	if first, _ := queue.Peek(); first.Message != "c" {
		t.Fatalf("expected oldest entries dropped, got %s", first.Message)
	}
}
