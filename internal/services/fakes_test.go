package services

import (
	"context"
	"sync"
	"time"

	"bondbot-backend/internal/models"
)

type touchCall struct {
	pairID string
	device models.Device
	now    time.Time
}

type appendCall struct {
	pairID string
	record models.Interaction
}

type activityCall struct {
	pairID string
	device models.Device
	day    int
}

// fakeStore is an in-memory PairStateStore that records every call and
// returns injected errors
type fakeStore struct {
	mu       sync.Mutex
	ensured  []string
	touches  []touchCall
	appends  []appendCall
	activity []activityCall
	sweeps   []time.Time

	ensureErr   error
	touchErr    error
	appendErr   error
	activityErr error
	sweepErr    error
}

func (s *fakeStore) EnsurePair(_ context.Context, pairID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensured = append(s.ensured, pairID)
	return s.ensureErr
}

func (s *fakeStore) TouchPresence(_ context.Context, pairID string, device models.Device, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touches = append(s.touches, touchCall{pairID, device, now})
	return s.touchErr
}

func (s *fakeStore) AppendInteraction(_ context.Context, pairID string, record models.Interaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appends = append(s.appends, appendCall{pairID, record})
	return s.appendErr
}

func (s *fakeStore) SetActivityDay(_ context.Context, pairID string, device models.Device, day int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activity = append(s.activity, activityCall{pairID, device, day})
	return s.activityErr
}

func (s *fakeStore) MarkStaleOffline(_ context.Context, staleBefore time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweeps = append(s.sweeps, staleBefore)
	return s.sweepErr
}

func (s *fakeStore) mutationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ensured) + len(s.touches) + len(s.appends) + len(s.activity) + len(s.sweeps)
}

type published struct {
	topic   string
	payload []byte
}

// fakePublisher records published messages
type fakePublisher struct {
	mu       sync.Mutex
	messages []published
	err      error
}

func (p *fakePublisher) Publish(topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, published{topic, payload})
	return p.err
}

// fakeClassifier returns a canned response or error
type fakeClassifier struct {
	text string
	err  error
}

func (c *fakeClassifier) Classify(_ context.Context, _ string) (string, error) {
	return c.text, c.err
}
