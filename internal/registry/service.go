package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/skyfield/listenerd/internal/document"
	"github.com/skyfield/listenerd/internal/validation"
	"github.com/skyfield/listenerd/internal/views"
	"github.com/skyfield/listenerd/pkg/logger"
	"github.com/skyfield/listenerd/pkg/metrics"
)

// Service is the write path of the registry. Every write attempt loads the
// existing revision of the target document, runs the validation hooks against
// (new, old, user), and commits only when every hook accepts. Rejections
// propagate to the caller unchanged; the HTTP layer is the only place that
// translates them.
type Service struct {
	repo  Repository
	hooks validation.Hooks
	index views.Index // optional; nil disables view maintenance
}

func NewService(repo Repository, hooks validation.Hooks, index views.Index) *Service {
	return &Service{repo: repo, hooks: hooks, index: index}
}

// Put writes a document revision under id. Returns the committed revision
// number and whether the write created the document. A stale "_rev" in doc
// fails with ErrConflict before validation runs.
func (s *Service) Put(ctx context.Context, id string, doc document.Doc, user validation.UserContext) (int64, bool, error) {
	old, err := s.repo.Get(ctx, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return 0, false, fmt.Errorf("load existing %s: %w", id, err)
	}
	if old != nil && doc.Rev() != old.Rev() {
		return 0, false, ErrConflict
	}

	if err := s.validate(doc, old, user); err != nil {
		return 0, false, err
	}

	rev := old.Rev() + 1
	stored := doc.Clone()
	stored[document.FieldID] = id
	stored[document.FieldRev] = rev
	if err := s.repo.Put(ctx, id, stored); err != nil {
		return 0, false, err
	}
	s.reindex(ctx, id, stored)
	return rev, old == nil, nil
}

// Delete removes a document. Deletion is modeled as a write of a tombstone
// carrying the old doc's type, so the same hooks govern it: deleting a
// listener_info doc needs the admin role exactly like any other edit.
func (s *Service) Delete(ctx context.Context, id string, user validation.UserContext) error {
	old, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	tombstone := document.Doc{
		document.FieldID:      id,
		document.FieldRev:     old.Rev() + 1,
		document.FieldDeleted: true,
		document.FieldType:    old.Type(),
	}
	if err := s.validate(tombstone, old, user); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.index != nil {
		if err := s.index.Remove(ctx, id); err != nil {
			logger.Warnf("failed to drop view row for %s: %v", id, err)
		}
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (document.Doc, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListByType(ctx context.Context, docType string) ([]document.Doc, error) {
	return s.repo.ListByType(ctx, docType)
}

func (s *Service) validate(newDoc, oldDoc document.Doc, user validation.UserContext) error {
	label := newDoc.Type()
	if label == "" {
		label = "untyped"
	}
	if err := s.hooks.Validate(newDoc, oldDoc, user); err != nil {
		if rej, ok := validation.AsRejection(err); ok {
			metrics.ValidationRejected.WithLabelValues(label, rej.Kind.String()).Inc()
		}
		return err
	}
	metrics.ValidationAccepted.WithLabelValues(label).Inc()
	return nil
}

// reindex refreshes the listener view row for a committed doc. Index failures
// are logged, not surfaced: the write is already durable and the row will be
// rewritten on the next revision.
func (s *Service) reindex(ctx context.Context, id string, doc document.Doc) {
	if s.index == nil {
		return
	}
	e := views.ListenerEntry(id, doc)
	if e == nil {
		return
	}
	if err := s.index.Update(ctx, e); err != nil {
		logger.Warnf("failed to update view row for %s: %v", id, err)
	}
}
