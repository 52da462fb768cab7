package tui

import "time"

// DefaultToastDuration is how long a toast stays visible
const DefaultToastDuration = 4 * time.Second

type ToastLevel int

const (
	ToastInfo ToastLevel = iota
	ToastError
)

type Toast struct {
	Message string
	Level   ToastLevel
}

// ToastQueue shows one toast at a time, oldest first
type ToastQueue struct {
	items []Toast
	limit int
}

func NewToastQueue() *ToastQueue {
	return &ToastQueue{limit: 5}
}

// Push adds a toast. A toast identical to the newest queued one is dropped,
// and the oldest queued toasts are discarded past the limit.
func (queue *ToastQueue) Push(toast Toast) bool {
	if n := len(queue.items); n > 0 && queue.items[n-1] == toast {
		return false
	}
	queue.items = append(queue.items, toast)
	if over := len(queue.items) - queue.limit; over > 0 {
		queue.items = queue.items[over:]
	}
	return true
}

func (queue *ToastQueue) Peek() (Toast, bool) {
	if len(queue.items) == 0 {
		return Toast{}, false
	}
	return queue.items[0], true
}

func (queue *ToastQueue) Pop() (Toast, bool) {
	if len(queue.items) == 0 {
		return Toast{}, false
	}
	item := queue.items[0]
	queue.items = queue.items[1:]
	return item, true
}

func (queue *ToastQueue) Len() int {
	return len(queue.items)
}
