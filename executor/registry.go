// Package executor holds one executor per node type. Dispatch is a plain
// switch over the node type so every variant is handled exhaustively; each
// executor is deterministic given the node config, the execution context and
// the optional resolving event.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/jornadahq/jornada/capability"
	"github.com/jornadahq/jornada/flow"
	"github.com/jornadahq/jornada/model"
	"github.com/jornadahq/jornada/persistence"
)

const DEFAULT_HTTP_TIMEOUT time.Duration = 30 * time.Second
const DEFAULT_INPUT_ATTEMPTS int = 3

type Registry struct {
	messenger  capability.Messenger
	contacts   capability.ContactStore
	handoff    capability.HandoffService
	httpCaller capability.HTTPCaller
	storage    persistence.Storage
	now        func() time.Time
}

func NewRegistry(messenger capability.Messenger, contacts capability.ContactStore, handoff capability.HandoffService, httpCaller capability.HTTPCaller, storage persistence.Storage) *Registry {
	return &Registry{
		messenger:  messenger,
		contacts:   contacts,
		handoff:    handoff,
		httpCaller: httpCaller,
		storage:    storage,
		now:        time.Now,
	}
}

// WithClock overrides the registry clock, used by tests to pin timer math.
func (r *Registry) WithClock(now func() time.Time) *Registry {
	r.now = now
	return r
}

// Execute runs the node's executor once and returns its outcome. The event
// is non-nil only on the first step after a resume.
func (r *Registry) Execute(ctx context.Context, fl *flow.Flow, node model.Node, execCtx *model.ExecutionContext, event *model.InboundEvent) Outcome {
	sc := &stepContext{
		ctx:     ctx,
		reg:     r,
		flow:    fl,
		execCtx: execCtx,
		event:   event,
	}
	switch node.Type {
	case model.NODE_TYPE_START:
		return Advance()
	case model.NODE_TYPE_MESSAGE:
		return r.executeMessage(sc, node)
	case model.NODE_TYPE_INPUT, model.NODE_TYPE_EMAIL_INPUT, model.NODE_TYPE_NUMBER_INPUT,
		model.NODE_TYPE_PHONE_INPUT, model.NODE_TYPE_DATE_INPUT, model.NODE_TYPE_FILE_UPLOAD:
		return r.executeInput(sc, node)
	case model.NODE_TYPE_CONDITION:
		return r.executeCondition(sc, node)
	case model.NODE_TYPE_SET_VARIABLE:
		return r.executeSetVariable(sc, node)
	case model.NODE_TYPE_HTTP_REQUEST:
		return r.executeHTTPRequest(sc, node)
	case model.NODE_TYPE_DELAY:
		return r.executeDelay(sc, node)
	case model.NODE_TYPE_WAIT:
		return r.executeWait(sc, node)
	case model.NODE_TYPE_AB_TEST:
		return r.executeABTest(sc, node)
	case model.NODE_TYPE_JUMP:
		return r.executeJump(sc, node)
	case model.NODE_TYPE_HANDOFF:
		return r.executeHandoff(sc, node)
	case model.NODE_TYPE_TERMINAL:
		return r.executeTerminal(sc, node)
	case model.NODE_TYPE_SCRIPT:
		return r.executeScript(sc, node)
	case model.NODE_TYPE_REDIRECT, model.NODE_TYPE_IMAGE, model.NODE_TYPE_VIDEO,
		model.NODE_TYPE_AUDIO, model.NODE_TYPE_EMBED:
		return r.executeMedia(sc, node)
	}
	return Fail(fmt.Errorf("no executor for node type %s", node.Type))
}
