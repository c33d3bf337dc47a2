// Package engine drives executions forward: it resolves the current node,
// runs its executor, applies the outcome and persists the new state. Each
// resume is a fresh invocation triggered by an external event; the engine
// never loops across a suspension boundary.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jornadahq/jornada/analytics"
	"github.com/jornadahq/jornada/executor"
	"github.com/jornadahq/jornada/flow"
	"github.com/jornadahq/jornada/logger"
	"github.com/jornadahq/jornada/metadata"
	"github.com/jornadahq/jornada/model"
	"github.com/jornadahq/jornada/persistence"
	"go.uber.org/zap"
)

// MAX_STEPS_PER_CYCLE bounds one drive cycle so a mis-wired graph cycle
// fails the execution instead of spinning a worker.
const MAX_STEPS_PER_CYCLE int = 256

type Engine struct {
	metadataService metadata.MetadataService
	storage         persistence.Storage
	registry        *executor.Registry
	now             func() time.Time
}

func NewEngine(metadataService metadata.MetadataService, storage persistence.Storage, registry *executor.Registry) *Engine {
	return &Engine{
		metadataService: metadataService,
		storage:         storage,
		registry:        registry,
		now:             time.Now,
	}
}

// WithClock overrides the engine clock, used by tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// StartExecution creates an execution of the flow's latest version for the
// subject and drives it until it suspends or finishes. Inactive and invalid
// flows are rejected before any state is created.
func (e *Engine) StartExecution(ctx context.Context, flowId string, subject model.SubjectRef) (string, error) {
	g, err := e.metadataService.GetLatestGraph(flowId)
	if err != nil {
		return "", err
	}
	if !g.Active {
		return "", fmt.Errorf("flow %s is not active", flowId)
	}
	fl, err := e.metadataService.GetFlow(flowId, g.Version)
	if err != nil {
		return "", err
	}
	execCtx := &model.ExecutionContext{
		Id:            uuid.New().String(),
		FlowId:        flowId,
		FlowVersion:   g.Version,
		Subject:       subject,
		CurrentNodeId: fl.StartNodeId,
		State:         model.RUNNING,
		Variables:     make(map[string]model.Value),
		StartedAt:     e.now(),
		UpdatedAt:     e.now(),
	}
	if err := e.storage.SaveExecution(execCtx); err != nil {
		return "", err
	}
	logger.Info("execution started", zap.String("flowId", flowId), zap.String("executionId", execCtx.Id))
	e.drive(ctx, fl, execCtx, nil)
	return execCtx.Id, nil
}

// DeliverEvent routes an inbound event to the single execution it should
// wake, or starts a new one for a session trigger. Events that match no
// parked execution are dropped, not errors.
func (e *Engine) DeliverEvent(ctx context.Context, event model.InboundEvent) error {
	switch event.Type {
	case model.EVENT_NEW_SESSION:
		_, err := e.StartExecution(ctx, event.FlowId, event.Subject)
		return err
	case model.EVENT_INBOUND_MESSAGE:
		for _, kind := range model.InputKinds() {
			executionId, found, err := e.storage.ResolveInput(kind, event.Subject.Key())
			if err != nil {
				return err
			}
			if found {
				return e.resume(ctx, executionId, &event)
			}
		}
		logger.Debug("inbound message matches no waiting execution", zap.String("subject", event.Subject.Key()))
		return nil
	case model.EVENT_TIMER_FIRED:
		return e.resume(ctx, event.ExecutionId, &event)
	case model.EVENT_WEBHOOK_RECEIVED:
		executionId, found, err := e.storage.ResolveWebhook(event.Token)
		if err != nil {
			return err
		}
		if !found {
			logger.Debug("webhook matches no waiting execution", zap.String("token", event.Token))
			return nil
		}
		return e.resume(ctx, executionId, &event)
	}
	return fmt.Errorf("unknown event type %s", event.Type)
}

// resume claims the suspended execution and drives it with the resolving
// event. Exactly one claim wins per suspension; a lost claim re-parks the
// consumed index entry when the execution is merely paused.
func (e *Engine) resume(ctx context.Context, executionId string, event *model.InboundEvent) error {
	execCtx, err := e.storage.GetExecution(executionId)
	if err != nil {
		return err
	}
	claimed, err := e.storage.ClaimResume(executionId)
	if err != nil {
		return err
	}
	if !claimed {
		// the claim saw a fresher state than our read, re-read to decide
		execCtx, err = e.storage.GetExecution(executionId)
		if err != nil {
			return err
		}
		if execCtx.State == model.PAUSED {
			return e.requeueWait(execCtx)
		}
		logger.Debug("execution not suspended, event dropped",
			zap.String("executionId", executionId), zap.String("state", string(execCtx.State)))
		return nil
	}
	fl, err := e.metadataService.GetFlow(execCtx.FlowId, execCtx.FlowVersion)
	if err != nil {
		e.releaseClaim(execCtx, err)
		return err
	}
	execCtx.State = model.RUNNING
	e.drive(ctx, fl, execCtx, event)
	return nil
}

// releaseClaim undoes a won claim when the resume can not proceed. The
// execution goes back to SUSPENDED and its consumed index entry is restored,
// so a later event can still wake it; a claim left dangling would sit in
// RUNNING with no path forward.
func (e *Engine) releaseClaim(execCtx *model.ExecutionContext, cause error) {
	logger.Error("resume aborted, releasing claim",
		zap.String("executionId", execCtx.Id), zap.Error(cause))
	execCtx.State = model.SUSPENDED
	execCtx.UpdatedAt = e.now()
	if err := e.storage.SaveExecution(execCtx); err != nil {
		e.markFailed(execCtx, fmt.Sprintf("resume failed: %v", cause))
		return
	}
	if err := e.requeueWait(execCtx); err != nil {
		e.markFailed(execCtx, fmt.Sprintf("resume failed: %v", cause))
	}
}

// drive runs steps until the execution suspends, finishes or fails. The
// triggering event stays visible for the whole cycle, so a Condition after
// the resumed node can still read the inbound message; the first advance
// clears the wait condition, which is what marks the resumed node as done.
func (e *Engine) drive(ctx context.Context, fl *flow.Flow, execCtx *model.ExecutionContext, event *model.InboundEvent) {
	for step := 0; ; step++ {
		if step >= MAX_STEPS_PER_CYCLE {
			e.markFailed(execCtx, fmt.Sprintf("step budget of %d exceeded, graph has a cycle without suspension", MAX_STEPS_PER_CYCLE))
			return
		}
		node, ok := fl.Node(execCtx.CurrentNodeId)
		if !ok {
			e.markFailed(execCtx, fmt.Sprintf("current node %s not in flow version %d", execCtx.CurrentNodeId, execCtx.FlowVersion))
			return
		}
		outcome := e.registry.Execute(ctx, fl, node, execCtx, event)
		switch outcome.Kind {
		case executor.OUTCOME_ADVANCE:
			execCtx.Waiting = nil
			if done := e.applyAdvance(fl, execCtx, node.Id, outcome); done {
				return
			}
		case executor.OUTCOME_SUSPEND:
			e.applySuspend(execCtx, outcome)
			return
		case executor.OUTCOME_TERMINATE:
			execCtx.Waiting = nil
			execCtx.State = model.TERMINATED
			execCtx.TerminationReason = outcome.Reason
			e.saveTerminal(execCtx)
			analytics.RecordExecutionTerminated(execCtx.FlowId, execCtx.Id, node.Id, outcome.Reason)
			logger.Info("execution terminated", zap.String("executionId", execCtx.Id), zap.String("reason", outcome.Reason))
			return
		case executor.OUTCOME_FAIL:
			e.markFailed(execCtx, outcome.Err.Error())
			return
		}
	}
}

// applyAdvance moves the execution to the next node, completing it when the
// current node has no outgoing edge. It reports whether the drive cycle is
// over.
func (e *Engine) applyAdvance(fl *flow.Flow, execCtx *model.ExecutionContext, nodeId string, outcome executor.Outcome) bool {
	if outcome.JumpTo == model.JUMP_TARGET_END {
		e.markCompleted(execCtx, nodeId)
		return true
	}
	if len(outcome.JumpTo) > 0 {
		execCtx.CurrentNodeId = outcome.JumpTo
		execCtx.UpdatedAt = e.now()
		if err := e.storage.SaveExecution(execCtx); err != nil {
			e.markFailed(execCtx, err.Error())
			return true
		}
		return false
	}
	next, found, err := fl.Next(nodeId, outcome.Handle)
	if err != nil {
		e.markFailed(execCtx, err.Error())
		return true
	}
	if !found {
		e.markCompleted(execCtx, nodeId)
		return true
	}
	execCtx.CurrentNodeId = next
	execCtx.UpdatedAt = e.now()
	if err := e.storage.SaveExecution(execCtx); err != nil {
		e.markFailed(execCtx, err.Error())
		return true
	}
	return false
}

// applySuspend persists the wait condition first, then registers the index
// entry that routes the resolving event back, so a claim can never observe a
// running state with a live index entry.
func (e *Engine) applySuspend(execCtx *model.ExecutionContext, outcome executor.Outcome) {
	execCtx.Waiting = outcome.Wait
	execCtx.State = model.SUSPENDED
	execCtx.UpdatedAt = e.now()
	if err := e.storage.SaveExecution(execCtx); err != nil {
		e.markFailed(execCtx, err.Error())
		return
	}
	if err := e.parkWait(execCtx); err != nil {
		e.markFailed(execCtx, err.Error())
		return
	}
	logger.Info("execution suspended", zap.String("executionId", execCtx.Id),
		zap.String("kind", string(outcome.Wait.Kind)), zap.String("node", outcome.Wait.NodeId))
}

func (e *Engine) parkWait(execCtx *model.ExecutionContext) error {
	switch execCtx.Waiting.Kind {
	case model.WAIT_INPUT:
		evicted, err := e.storage.ParkInput(execCtx.Waiting.InputKind, execCtx.Subject.Key(), execCtx.Id)
		if err != nil {
			return err
		}
		if evicted != "" && evicted != execCtx.Id {
			e.retireEvicted(evicted, execCtx.Id)
		}
		return nil
	case model.WAIT_TIMER:
		return e.storage.ParkTimer(execCtx.Id, execCtx.Waiting.FireAt)
	case model.WAIT_WEBHOOK:
		return e.storage.ParkWebhook(execCtx.Waiting.CallbackToken, execCtx.Id)
	}
	return fmt.Errorf("unknown wait kind %s", execCtx.Waiting.Kind)
}

// retireEvicted terminates an execution whose input wait entry was just taken
// over by a newer execution for the same subject. Without its index entry the
// old execution could never wake, so leaving it SUSPENDED would strand it.
func (e *Engine) retireEvicted(evictedId string, winnerId string) {
	claimed, err := e.storage.ClaimResume(evictedId)
	if err != nil || !claimed {
		logger.Warn("evicted input wait holder not claimable",
			zap.String("executionId", evictedId), zap.Error(err))
		return
	}
	execCtx, err := e.storage.GetExecution(evictedId)
	if err != nil {
		logger.Error("error loading evicted execution", zap.String("executionId", evictedId), zap.Error(err))
		return
	}
	execCtx.State = model.TERMINATED
	execCtx.Waiting = nil
	execCtx.TerminationReason = fmt.Sprintf("input wait superseded by execution %s", winnerId)
	e.saveTerminal(execCtx)
	analytics.RecordExecutionTerminated(execCtx.FlowId, execCtx.Id, execCtx.CurrentNodeId, execCtx.TerminationReason)
	logger.Info("execution superseded", zap.String("executionId", evictedId), zap.String("by", winnerId))
}

// PAUSED_TIMER_REQUEUE_DELAY is how far a re-parked timer wait is pushed out
// when its fireAt already passed, so the sweeper does not redeliver the same
// paused execution every tick.
const PAUSED_TIMER_REQUEUE_DELAY = 30 * time.Second

// requeueWait restores the index entry consumed by an event that failed to
// wake the execution, so the wait survives a pause or an aborted resume.
func (e *Engine) requeueWait(execCtx *model.ExecutionContext) error {
	if execCtx.Waiting == nil {
		return nil
	}
	if execCtx.Waiting.Kind == model.WAIT_TIMER {
		fireAt := execCtx.Waiting.FireAt
		if floor := e.now().Add(PAUSED_TIMER_REQUEUE_DELAY); fireAt.Before(floor) {
			fireAt = floor
		}
		return e.storage.ParkTimer(execCtx.Id, fireAt)
	}
	return e.parkWait(execCtx)
}

func (e *Engine) markCompleted(execCtx *model.ExecutionContext, nodeId string) {
	execCtx.State = model.COMPLETED
	execCtx.Waiting = nil
	e.saveTerminal(execCtx)
	analytics.RecordExecutionCompleted(execCtx.FlowId, execCtx.Id, nodeId)
	logger.Info("execution completed", zap.String("executionId", execCtx.Id))
}

func (e *Engine) markFailed(execCtx *model.ExecutionContext, reason string) {
	execCtx.State = model.FAILED
	execCtx.FailureReason = reason
	execCtx.Waiting = nil
	e.saveTerminal(execCtx)
	analytics.RecordExecutionFailed(execCtx.FlowId, execCtx.Id, execCtx.CurrentNodeId, reason)
	logger.Error("execution failed", zap.String("executionId", execCtx.Id), zap.String("reason", reason))
}

func (e *Engine) saveTerminal(execCtx *model.ExecutionContext) {
	execCtx.UpdatedAt = e.now()
	if err := e.storage.SaveExecution(execCtx); err != nil {
		logger.Error("error persisting terminal state", zap.String("executionId", execCtx.Id), zap.Error(err))
	}
}

// GetExecutionState returns an observer snapshot of the execution.
func (e *Engine) GetExecutionState(executionId string) (*model.ExecutionView, error) {
	execCtx, err := e.storage.GetExecution(executionId)
	if err != nil {
		return nil, err
	}
	return &model.ExecutionView{
		Id:                execCtx.Id,
		FlowId:            execCtx.FlowId,
		FlowVersion:       execCtx.FlowVersion,
		State:             execCtx.State,
		CurrentNodeId:     execCtx.CurrentNodeId,
		Waiting:           execCtx.Waiting,
		Variables:         execCtx.Snapshot(),
		FailureReason:     execCtx.FailureReason,
		TerminationReason: execCtx.TerminationReason,
	}, nil
}

// TerminateExecution stops an execution in any non-terminal state,
// interrupting whatever it is waiting on.
func (e *Engine) TerminateExecution(executionId string, reason string) error {
	execCtx, err := e.storage.GetExecution(executionId)
	if err != nil {
		return err
	}
	if execCtx.State.Terminal() {
		return fmt.Errorf("execution %s already %s", executionId, execCtx.State)
	}
	if err := e.storage.ClearWait(execCtx); err != nil {
		return err
	}
	execCtx.Waiting = nil
	execCtx.State = model.TERMINATED
	execCtx.TerminationReason = reason
	execCtx.UpdatedAt = e.now()
	if err := e.storage.SaveExecution(execCtx); err != nil {
		return err
	}
	analytics.RecordExecutionTerminated(execCtx.FlowId, execCtx.Id, execCtx.CurrentNodeId, reason)
	logger.Info("execution terminated by operator", zap.String("executionId", executionId), zap.String("reason", reason))
	return nil
}

// PauseExecution holds a suspended execution: events that arrive while
// paused are re-parked instead of waking it.
func (e *Engine) PauseExecution(executionId string) error {
	execCtx, err := e.storage.GetExecution(executionId)
	if err != nil {
		return err
	}
	if execCtx.State != model.SUSPENDED {
		return fmt.Errorf("can not pause execution in state %s", execCtx.State)
	}
	execCtx.State = model.PAUSED
	execCtx.UpdatedAt = e.now()
	return e.storage.SaveExecution(execCtx)
}

// ResumeExecution lifts a pause, returning the execution to its wait.
func (e *Engine) ResumeExecution(executionId string) error {
	execCtx, err := e.storage.GetExecution(executionId)
	if err != nil {
		return err
	}
	if execCtx.State != model.PAUSED {
		return fmt.Errorf("can not resume execution in state %s", execCtx.State)
	}
	execCtx.State = model.SUSPENDED
	execCtx.UpdatedAt = e.now()
	return e.storage.SaveExecution(execCtx)
}
