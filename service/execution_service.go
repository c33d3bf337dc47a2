// Package service is the thin façade the REST layer talks to. It translates
// transport shapes into engine calls and keeps the handlers free of
// engine-level types.
package service

import (
	"context"

	"github.com/jornadahq/jornada/engine"
	"github.com/jornadahq/jornada/model"
)

type ExecutionService struct {
	engine *engine.Engine
}

func NewExecutionService(e *engine.Engine) *ExecutionService {
	return &ExecutionService{engine: e}
}

func (s *ExecutionService) StartExecution(ctx context.Context, req model.StartExecutionRequest) (string, error) {
	return s.engine.StartExecution(ctx, req.FlowId, req.Subject)
}

func (s *ExecutionService) GetExecution(executionId string) (*model.ExecutionView, error) {
	return s.engine.GetExecutionState(executionId)
}

func (s *ExecutionService) TerminateExecution(executionId string, reason string) error {
	return s.engine.TerminateExecution(executionId, reason)
}

func (s *ExecutionService) PauseExecution(executionId string) error {
	return s.engine.PauseExecution(executionId)
}

func (s *ExecutionService) ResumeExecution(executionId string) error {
	return s.engine.ResumeExecution(executionId)
}

// DeliverMessage feeds an inbound subject message into the engine.
func (s *ExecutionService) DeliverMessage(ctx context.Context, req model.InboundMessageRequest) error {
	return s.engine.DeliverEvent(ctx, model.InboundEvent{
		Type:    model.EVENT_INBOUND_MESSAGE,
		Subject: req.Subject,
		Content: req.Content,
	})
}

// DeliverWebhook resolves a callback token with an optional payload.
func (s *ExecutionService) DeliverWebhook(ctx context.Context, token string, payload map[string]any) error {
	return s.engine.DeliverEvent(ctx, model.InboundEvent{
		Type:    model.EVENT_WEBHOOK_RECEIVED,
		Token:   token,
		Payload: payload,
	})
}
