package capability

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jornadahq/jornada/logger"
	"github.com/jornadahq/jornada/model"
	"go.uber.org/zap"
)

// LogMessenger writes outbound traffic to the log. Used in dev mode and
// whenever no channel transport is plugged in.
type LogMessenger struct{}

func (LogMessenger) SendMessage(ctx context.Context, subject model.SubjectRef, content string, buttons []model.Button) (MessageRef, error) {
	ref := MessageRef(uuid.New().String())
	logger.Info("outbound message",
		zap.String("subject", subject.Key()),
		zap.String("content", content),
		zap.Int("buttons", len(buttons)),
		zap.String("ref", string(ref)))
	return ref, nil
}

func (LogMessenger) SendAttachment(ctx context.Context, subject model.SubjectRef, kind model.NodeType, url string, caption string) (MessageRef, error) {
	ref := MessageRef(uuid.New().String())
	logger.Info("outbound attachment",
		zap.String("subject", subject.Key()),
		zap.String("kind", string(kind)),
		zap.String("url", url),
		zap.String("ref", string(ref)))
	return ref, nil
}

// InMemoryContactStore keeps contact fields in process memory, keyed by
// subject.
type InMemoryContactStore struct {
	mu     sync.RWMutex
	fields map[string]map[string]model.Value
}

func NewInMemoryContactStore() *InMemoryContactStore {
	return &InMemoryContactStore{fields: make(map[string]map[string]model.Value)}
}

func (s *InMemoryContactStore) ReadField(ctx context.Context, subject model.SubjectRef, field string) (model.Value, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	contact, ok := s.fields[subject.Key()]
	if !ok {
		return model.Value{}, false, nil
	}
	v, ok := contact[field]
	return v, ok, nil
}

func (s *InMemoryContactStore) WriteField(ctx context.Context, subject model.SubjectRef, field string, value model.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	contact, ok := s.fields[subject.Key()]
	if !ok {
		contact = make(map[string]model.Value)
		s.fields[subject.Key()] = contact
	}
	contact[field] = value
	return nil
}

// LogHandoff records handoff requests to the log.
type LogHandoff struct{}

func (LogHandoff) RequestHuman(ctx context.Context, subject model.SubjectRef, queue string) (HandoffRef, error) {
	ref := HandoffRef(uuid.New().String())
	logger.Info("handoff requested",
		zap.String("subject", subject.Key()),
		zap.String("queue", queue),
		zap.String("ref", string(ref)))
	return ref, nil
}
