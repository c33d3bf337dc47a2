package executor

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jornadahq/jornada/model"
)

// executeDelay parks the execution on a timer. The timer sweeper delivers the
// wake-up event once fireAt passes.
func (r *Registry) executeDelay(sc *stepContext, node model.Node) Outcome {
	cfg := node.Config.(*model.DelayConfig)
	if sc.resumingAt(node.Id) {
		return Advance()
	}
	return Suspend(model.WaitCondition{
		Kind:   model.WAIT_TIMER,
		NodeId: node.Id,
		FireAt: r.now().Add(time.Duration(cfg.DelaySeconds) * time.Second),
	})
}

// executeWait parks on whichever event kind the node is configured for.
func (r *Registry) executeWait(sc *stepContext, node model.Node) Outcome {
	cfg := node.Config.(*model.WaitConfig)
	if sc.resumingAt(node.Id) {
		if cfg.WaitFor == model.WAIT_FOR_EVENT && len(cfg.VariableName) > 0 && sc.event.Payload != nil {
			if err := sc.setVariable(cfg.VariableName, model.SCOPE_SESSION, model.JSONValue(sc.event.Payload)); err != nil {
				return Fail(err)
			}
		}
		return Advance()
	}
	switch cfg.WaitFor {
	case model.WAIT_FOR_TIME:
		return Suspend(model.WaitCondition{
			Kind:   model.WAIT_TIMER,
			NodeId: node.Id,
			FireAt: r.now().Add(time.Duration(cfg.DelaySeconds) * time.Second),
		})
	case model.WAIT_FOR_USER:
		return Suspend(model.WaitCondition{
			Kind:      model.WAIT_INPUT,
			NodeId:    node.Id,
			InputKind: model.INPUT_KIND_TEXT,
		})
	case model.WAIT_FOR_EVENT:
		return Suspend(model.WaitCondition{
			Kind:          model.WAIT_WEBHOOK,
			NodeId:        node.Id,
			CallbackToken: uuid.New().String(),
		})
	}
	return Fail(fmt.Errorf("wait node %s has unknown waitFor %q", node.Id, cfg.WaitFor))
}

// executeHandoff transfers the subject to a human operator. Depending on
// configuration the execution either ends there or parks until the handoff
// resolves through its callback token.
func (r *Registry) executeHandoff(sc *stepContext, node model.Node) Outcome {
	cfg := node.Config.(*model.HandoffConfig)
	if sc.resumingAt(node.Id) {
		return Advance()
	}
	if _, err := r.handoff.RequestHuman(sc.ctx, sc.execCtx.Subject, cfg.Queue); err != nil {
		return Fail(fmt.Errorf("handoff on node %s: %w", node.Id, err))
	}
	if cfg.Terminate {
		return Terminate("handed off to human")
	}
	return Suspend(model.WaitCondition{
		Kind:          model.WAIT_WEBHOOK,
		NodeId:        node.Id,
		CallbackToken: uuid.New().String(),
	})
}

func (r *Registry) executeTerminal(sc *stepContext, node model.Node) Outcome {
	cfg := node.Config.(*model.TerminalConfig)
	reason := cfg.Reason
	if len(reason) == 0 {
		reason = "flow reached terminal node"
	}
	return Terminate(reason)
}
