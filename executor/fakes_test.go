package executor

import (
	"context"
	"sync"
	"time"

	"github.com/jornadahq/jornada/capability"
	"github.com/jornadahq/jornada/model"
	"github.com/jornadahq/jornada/persistence/memory"
)

type sentMessage struct {
	subject model.SubjectRef
	content string
	buttons []model.Button
}

type fakeMessenger struct {
	mu       sync.Mutex
	messages []sentMessage
	err      error
}

func (f *fakeMessenger) SendMessage(ctx context.Context, subject model.SubjectRef, content string, buttons []model.Button) (capability.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.messages = append(f.messages, sentMessage{subject: subject, content: content, buttons: buttons})
	return "msg-1", nil
}

func (f *fakeMessenger) SendAttachment(ctx context.Context, subject model.SubjectRef, kind model.NodeType, url string, caption string) (capability.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.messages = append(f.messages, sentMessage{subject: subject, content: url})
	return "msg-1", nil
}

func (f *fakeMessenger) last() sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messages[len(f.messages)-1]
}

type fakeHandoff struct {
	requests int
}

func (f *fakeHandoff) RequestHuman(ctx context.Context, subject model.SubjectRef, queue string) (capability.HandoffRef, error) {
	f.requests++
	return "handoff-1", nil
}

type fakeHTTPCaller struct {
	status int
	body   string
	err    error
	gotURL string
}

func (f *fakeHTTPCaller) Call(ctx context.Context, method string, url string, headers map[string]string, body string, timeout time.Duration) (*capability.HTTPResponse, error) {
	f.gotURL = url
	if f.err != nil {
		return nil, f.err
	}
	return &capability.HTTPResponse{StatusCode: f.status, Body: []byte(f.body)}, nil
}

type testRig struct {
	registry  *Registry
	messenger *fakeMessenger
	handoff   *fakeHandoff
	caller    *fakeHTTPCaller
	storage   *memory.Storage
	contacts  *capability.InMemoryContactStore
}

func newTestRig() *testRig {
	messenger := &fakeMessenger{}
	handoff := &fakeHandoff{}
	caller := &fakeHTTPCaller{status: 200}
	storage := memory.NewStorage()
	contacts := capability.NewInMemoryContactStore()
	registry := NewRegistry(messenger, contacts, handoff, caller, storage)
	return &testRig{
		registry:  registry,
		messenger: messenger,
		handoff:   handoff,
		caller:    caller,
		storage:   storage,
		contacts:  contacts,
	}
}

func newExecCtx() *model.ExecutionContext {
	return &model.ExecutionContext{
		Id:            "exec-1",
		FlowId:        "welcome",
		FlowVersion:   1,
		Subject:       model.SubjectRef{Channel: "whatsapp", Contact: "+5511999"},
		CurrentNodeId: "start",
		State:         model.RUNNING,
		Variables:     make(map[string]model.Value),
		StartedAt:     time.Now(),
	}
}
