// Package memory is the in-process storage backend used by tests and single
// node development. It mirrors the redis backend's semantics, including the
// claim guarantees, behind the same interfaces.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/jornadahq/jornada/model"
	"github.com/jornadahq/jornada/persistence"
	"github.com/jornadahq/jornada/util"
)

var _ persistence.Storage = new(Storage)

type timerEntry struct {
	executionId string
	fireAt      time.Time
}

type Storage struct {
	mu           sync.Mutex
	executions   map[string][]byte
	inputWaits   map[string]string
	webhookWaits map[string]string
	timers       []timerEntry
	globals      map[string]map[string]model.Value
	encDec       util.EncoderDecoder[model.ExecutionContext]
}

func NewStorage() *Storage {
	return &Storage{
		executions:   make(map[string][]byte),
		inputWaits:   make(map[string]string),
		webhookWaits: make(map[string]string),
		globals:      make(map[string]map[string]model.Value),
		encDec:       util.NewJsonEncoderDecoder[model.ExecutionContext](),
	}
}

func (s *Storage) SaveExecution(execCtx *model.ExecutionContext) error {
	data, err := s.encDec.Encode(*execCtx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executions[execCtx.Id] = data
	return nil
}

func (s *Storage) GetExecution(executionId string) (*model.ExecutionContext, error) {
	s.mu.Lock()
	data, ok := s.executions[executionId]
	s.mu.Unlock()
	if !ok {
		return nil, persistence.NotFoundError{Kind: "execution", Key: executionId}
	}
	return s.encDec.Decode(data)
}

func (s *Storage) ClaimResume(executionId string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.executions[executionId]
	if !ok {
		return false, persistence.NotFoundError{Kind: "execution", Key: executionId}
	}
	execCtx, err := s.encDec.Decode(data)
	if err != nil {
		return false, err
	}
	if execCtx.State != model.SUSPENDED {
		return false, nil
	}
	execCtx.State = model.RUNNING
	execCtx.UpdatedAt = time.Now()
	updated, err := s.encDec.Encode(*execCtx)
	if err != nil {
		return false, err
	}
	s.executions[executionId] = updated
	return true, nil
}

func inputWaitKey(kind model.InputKind, subjectKey string) string {
	return string(kind) + ":" + subjectKey
}

func (s *Storage) ParkInput(kind model.InputKind, subjectKey string, executionId string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := inputWaitKey(kind, subjectKey)
	evicted := s.inputWaits[key]
	s.inputWaits[key] = executionId
	return evicted, nil
}

func (s *Storage) ResolveInput(kind model.InputKind, subjectKey string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := inputWaitKey(kind, subjectKey)
	executionId, ok := s.inputWaits[key]
	if !ok {
		return "", false, nil
	}
	delete(s.inputWaits, key)
	return executionId, true, nil
}

func (s *Storage) ParkTimer(executionId string, fireAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers = append(s.timers, timerEntry{executionId: executionId, fireAt: fireAt})
	sort.Slice(s.timers, func(i, j int) bool {
		return s.timers[i].fireAt.Before(s.timers[j].fireAt)
	})
	return nil
}

func (s *Storage) PollTimers(now time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var due []string
	for len(s.timers) > 0 && !s.timers[0].fireAt.After(now) {
		due = append(due, s.timers[0].executionId)
		s.timers = s.timers[1:]
	}
	return due, nil
}

func (s *Storage) ParkWebhook(token string, executionId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.webhookWaits[token] = executionId
	return nil
}

func (s *Storage) ResolveWebhook(token string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	executionId, ok := s.webhookWaits[token]
	if !ok {
		return "", false, nil
	}
	delete(s.webhookWaits, token)
	return executionId, true, nil
}

func (s *Storage) ClearWait(execCtx *model.ExecutionContext) error {
	if execCtx.Waiting == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch execCtx.Waiting.Kind {
	case model.WAIT_INPUT:
		key := inputWaitKey(execCtx.Waiting.InputKind, execCtx.Subject.Key())
		if s.inputWaits[key] == execCtx.Id {
			delete(s.inputWaits, key)
		}
	case model.WAIT_TIMER:
		kept := s.timers[:0]
		for _, t := range s.timers {
			if t.executionId != execCtx.Id {
				kept = append(kept, t)
			}
		}
		s.timers = kept
	case model.WAIT_WEBHOOK:
		delete(s.webhookWaits, execCtx.Waiting.CallbackToken)
	}
	return nil
}

func (s *Storage) SetGlobalVariable(flowId string, name string, value model.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	vars, ok := s.globals[flowId]
	if !ok {
		vars = make(map[string]model.Value)
		s.globals[flowId] = vars
	}
	vars[name] = value
	return nil
}

func (s *Storage) GetGlobalVariable(flowId string, name string) (model.Value, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.globals[flowId][name]
	return value, ok, nil
}
