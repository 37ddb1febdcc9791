package history

import (
	"context"
	"sync"
	"time"

	"github.com/airmon/air-monitor-service/internal/model"
	"go.uber.org/zap"
)

// InvalidRangeError is a date range that cannot be resolved into a query
// interval. It surfaces before any backend call.
type InvalidRangeError struct {
	Reason string
}

func (e *InvalidRangeError) Error() string {
	return "invalid date range: " + e.Reason
}

// DateRange is a caller-supplied calendar range. To may be nil, meaning the
// same day as From.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Interval is a resolved UTC query window, inclusive on both ends.
type Interval struct {
	Start time.Time
	End   time.Time
}

// ToUTCInterval resolves a date range into a UTC interval. The calendar
// date components of the inputs are reinterpreted as UTC dates regardless
// of their original zone: From's date at 00:00:00.000Z through To's date at
// 23:59:59.999Z. Bounds later than now are clamped to now.
func ToUTCInterval(r DateRange, now time.Time) (Interval, error) {
	if r.From == nil {
		return Interval{}, &InvalidRangeError{Reason: "missing start date"}
	}

	to := r.To
	if to == nil {
		to = r.From
	}

	fy, fm, fd := r.From.Date()
	ty, tm, td := to.Date()

	start := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	end := time.Date(ty, tm, td, 23, 59, 59, 999_000_000, time.UTC)

	now = now.UTC()
	if start.After(now) {
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	if end.After(now) {
		end = now
	}
	if end.Before(start) {
		return Interval{}, &InvalidRangeError{Reason: "end date precedes start date"}
	}

	return Interval{Start: start, End: end}, nil
}

// Fetcher is the backend operation the service depends on.
type Fetcher interface {
	MessagesByTimeRange(ctx context.Context, topic string, start, end time.Time) ([]model.Message, error)
}

// Result is one fetch's outcome tagged with its request token.
type Result struct {
	Token    uint64
	Interval Interval
	Messages []model.Message
}

// Service resolves date ranges and fetches matching stored messages for a
// single topic. Concurrent fetches are allowed; in-flight requests are not
// cancelled by newer ones. Instead every fetch carries a monotonically
// increasing token and Apply discards responses that arrive after a newer
// request was issued.
type Service struct {
	backend Fetcher
	topic   string
	logger  *zap.Logger

	mu          sync.Mutex
	lastIssued  uint64
	lastApplied uint64
	current     []model.Message
}

// NewService creates a historical query service for the given topic.
func NewService(backend Fetcher, topic string, logger *zap.Logger) *Service {
	return &Service{backend: backend, topic: topic, logger: logger}
}

// Fetch resolves the range and issues one backend query. An empty result
// means no data in range; transport and backend failures come back as a
// QueryFailedError from the backend client.
func (s *Service) Fetch(ctx context.Context, r DateRange) (*Result, error) {
	interval, err := ToUTCInterval(r, time.Now())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.lastIssued++
	token := s.lastIssued
	s.mu.Unlock()

	messages, err := s.backend.MessagesByTimeRange(ctx, s.topic, interval.Start, interval.End)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("historical range fetched",
		zap.String("topic", s.topic),
		zap.Time("start", interval.Start),
		zap.Time("end", interval.End),
		zap.Int("messages", len(messages)),
	)

	return &Result{Token: token, Interval: interval, Messages: messages}, nil
}

// Apply records a result as the current query outcome. It reports false
// and leaves state untouched when a newer result has already been applied,
// so overlapping fetches resolve latest-wins.
func (s *Service) Apply(res *Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res.Token <= s.lastApplied {
		s.logger.Debug("discarding stale fetch result",
			zap.Uint64("token", res.Token),
			zap.Uint64("applied", s.lastApplied),
		)
		return false
	}
	s.lastApplied = res.Token
	s.current = res.Messages
	return true
}

// Current returns a copy of the last applied result set. Snapshot creation
// defaults to these messages.
func (s *Service) Current() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Message, len(s.current))
	copy(out, s.current)
	return out
}
