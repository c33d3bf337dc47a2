package model

type EventType string

const EVENT_INBOUND_MESSAGE EventType = "INBOUND_MESSAGE"
const EVENT_TIMER_FIRED EventType = "TIMER_FIRED"
const EVENT_WEBHOOK_RECEIVED EventType = "WEBHOOK_RECEIVED"
const EVENT_NEW_SESSION EventType = "NEW_SESSION"

// InboundEvent is the only input that can start or resume an execution.
type InboundEvent struct {
	Type        EventType      `json:"type"`
	Subject     SubjectRef     `json:"subject,omitempty"`
	Content     string         `json:"content,omitempty"`
	ExecutionId string         `json:"executionId,omitempty"`
	Token       string         `json:"token,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
	FlowId      string         `json:"flowId,omitempty"`
}
