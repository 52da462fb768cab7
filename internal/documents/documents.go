// Package documents filters, watches and bulk-deletes uploaded documents.
package documents

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gabe/consultant/internal/models"
	"github.com/gabe/consultant/internal/poll"
	"golang.org/x/sync/errgroup"
)

// DefaultWatchInterval is how often Watch refetches while documents are in flight
const DefaultWatchInterval = 2 * time.Second

// maxConcurrentDeletes bounds DeleteAll fan-out
const maxConcurrentDeletes = 8

// Filter narrows a document list. Empty fields match everything; set fields
// combine with AND.
type Filter struct {
	Query  string
	Type   models.DocumentType
	Status models.DocumentStatus
}

// Match reports whether doc passes every active criterion
func (f Filter) Match(doc models.Document) bool {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q != "" && !strings.Contains(strings.ToLower(doc.Title), q) {
		return false
	}
	if f.Type != "" && doc.DocumentType != f.Type {
		return false
	}
	if f.Status != "" && doc.DocumentStatus != f.Status {
		return false
	}
	return true
}

// Apply returns the matching documents in their original order
func (f Filter) Apply(docs []models.Document) []models.Document {
	out := make([]models.Document, 0, len(docs))
	for _, d := range docs {
		if f.Match(d) {
			out = append(out, d)
		}
	}
	return out
}

// TypeOptions lists the distinct document types present, in first-seen order
func TypeOptions(docs []models.Document) []models.DocumentType {
	return distinct(docs, func(d models.Document) models.DocumentType { return d.DocumentType })
}

// StatusOptions lists the distinct statuses present, in first-seen order
func StatusOptions(docs []models.Document) []models.DocumentStatus {
	return distinct(docs, func(d models.Document) models.DocumentStatus { return d.DocumentStatus })
}

func distinct[T comparable](docs []models.Document, key func(models.Document) T) []T {
	seen := make(map[T]bool)
	var out []T
	for _, d := range docs {
		k := key(d)
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// Settled reports whether every document has reached a terminal status
func Settled(docs []models.Document) bool {
	for _, d := range docs {
		if !d.DocumentStatus.IsTerminal() {
			return false
		}
	}
	return true
}

// Lister fetches the current document list
type Lister interface {
	ListDocuments(ctx context.Context) ([]models.Document, error)
}

// Deleter removes one document
type Deleter interface {
	DeleteDocument(ctx context.Context, documentID string) error
}

// Watch fetches the list, hands it to onUpdate, and keeps refetching every
// interval while any document is still pending or processing. Fetch errors
// go to onError and do not stop the watch.
func Watch(ctx context.Context, lister Lister, interval time.Duration, onUpdate func([]models.Document), onError func(error)) error {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}

	p := poll.New(poll.WithInterval(interval), poll.WithOnError(func(err error) {
		if onError != nil {
			onError(err)
		}
	}))

	return p.Run(ctx, func(ctx context.Context) (bool, error) {
		docs, err := lister.ListDocuments(ctx)
		if err != nil {
			return false, err
		}
		if onUpdate != nil {
			onUpdate(docs)
		}
		return Settled(docs), nil
	})
}

// DeleteAll deletes every id concurrently. Each delete succeeds or fails on
// its own; the number of failures is returned.
func DeleteAll(ctx context.Context, deleter Deleter, ids []string) int {
	var failed atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDeletes)
	for _, id := range ids {
		g.Go(func() error {
			if err := deleter.DeleteDocument(gctx, id); err != nil {
				failed.Add(1)
			}
			// never return the error: one failure must not cancel the others
			return nil
		})
	}
	g.Wait()

	return int(failed.Load())
}

// NewlySettled returns the documents of next that were pending or processing
// in prev and have since reached a terminal status.
func NewlySettled(prev, next []models.Document) []models.Document {
	open := make(map[string]bool, len(prev))
	for _, d := range prev {
		if !d.DocumentStatus.IsTerminal() {
			open[d.ID] = true
		}
	}

	var settled []models.Document
	for _, d := range next {
		if open[d.ID] && d.DocumentStatus.IsTerminal() {
			settled = append(settled, d)
		}
	}
	return settled
}
