package snapshot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/airmon/air-monitor-service/internal/model"
	"go.uber.org/zap"
)

// EmptyMessageSetError is a snapshot creation attempt with no messages.
// It is raised locally, before any backend round-trip.
type EmptyMessageSetError struct{}

func (e *EmptyMessageSetError) Error() string {
	return "cannot create snapshot from an empty message set"
}

// TimeRangeUnavailable is the display value for a snapshot without messages.
const TimeRangeUnavailable = "N/A"

// Store is the backend surface the service depends on.
type Store interface {
	CreateSnapshot(ctx context.Context, title, description string, messages []model.Message) (*model.Snapshot, error)
	ListSnapshots(ctx context.Context) ([]model.Snapshot, error)
	SnapshotDetail(ctx context.Context, id string) (*model.Snapshot, error)
	UpdateSnapshot(ctx context.Context, id, title, description string) (*model.Snapshot, error)
	DeleteSnapshot(ctx context.Context, id string) error
}

// Service manages named snapshots of historical message sets. It also
// tracks the currently displayed detail so a successful delete can clear a
// detail view that references the deleted id.
type Service struct {
	store  Store
	logger *zap.Logger

	mu     sync.Mutex
	detail *model.Snapshot
}

// NewService creates a snapshot service.
func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Create persists a new snapshot. An empty message set fails immediately
// with EmptyMessageSetError and issues no network call.
func (s *Service) Create(ctx context.Context, title, description string, messages []model.Message) (*model.Snapshot, error) {
	if len(messages) == 0 {
		return nil, &EmptyMessageSetError{}
	}

	created, err := s.store.CreateSnapshot(ctx, title, description, messages)
	if err != nil {
		return nil, err
	}

	s.logger.Info("snapshot created",
		zap.String("id", created.ID),
		zap.String("title", created.Title),
		zap.Int("messages", len(messages)),
	)
	return created, nil
}

// List returns all stored snapshots.
func (s *Service) List(ctx context.Context) ([]model.Snapshot, error) {
	return s.store.ListSnapshots(ctx)
}

// Detail fetches one snapshot with its full message set and records it as
// the currently displayed detail.
func (s *Service) Detail(ctx context.Context, id string) (*model.Snapshot, error) {
	snap, err := s.store.SnapshotDetail(ctx, id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.detail = snap
	s.mu.Unlock()
	return snap, nil
}

// Update replaces a snapshot's title and description. The embedded message
// set is fixed at creation and never re-selected. A held detail for the
// same id is refreshed with the updated record.
func (s *Service) Update(ctx context.Context, id, title, description string) (*model.Snapshot, error) {
	updated, err := s.store.UpdateSnapshot(ctx, id, title, description)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.detail != nil && s.detail.ID == id {
		s.detail = updated
	}
	s.mu.Unlock()

	s.logger.Info("snapshot updated", zap.String("id", id))
	return updated, nil
}

// Delete removes a snapshot. On success a held detail referencing the
// deleted id is cleared, since it is no longer retrievable.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteSnapshot(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	if s.detail != nil && s.detail.ID == id {
		s.detail = nil
	}
	s.mu.Unlock()

	s.logger.Info("snapshot deleted", zap.String("id", id))
	return nil
}

// CurrentDetail returns the currently displayed snapshot, or nil.
func (s *Service) CurrentDetail() *model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detail
}

// TimeRange computes the [min, max] timestamp span of a message set. ok is
// false for an empty set.
func TimeRange(messages []model.Message) (start, end time.Time, ok bool) {
	if len(messages) == 0 {
		return time.Time{}, time.Time{}, false
	}

	start, end = messages[0].Timestamp, messages[0].Timestamp
	for _, m := range messages[1:] {
		if m.Timestamp.Before(start) {
			start = m.Timestamp
		}
		if m.Timestamp.After(end) {
			end = m.Timestamp
		}
	}
	return start, end, true
}

// TimeRangeLabel formats a message set's span for display, with a sentinel
// for snapshots that carry no messages.
func TimeRangeLabel(messages []model.Message) string {
	start, end, ok := TimeRange(messages)
	if !ok {
		return TimeRangeUnavailable
	}
	return fmt.Sprintf("%s - %s", start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
}
