package model

import (
	"fmt"
	"time"
)

type ExecutionState string

const RUNNING ExecutionState = "RUNNING"
const SUSPENDED ExecutionState = "SUSPENDED"
const COMPLETED ExecutionState = "COMPLETED"
const FAILED ExecutionState = "FAILED"
const TERMINATED ExecutionState = "TERMINATED"
const PAUSED ExecutionState = "PAUSED"

func (s ExecutionState) Terminal() bool {
	return s == COMPLETED || s == FAILED || s == TERMINATED
}

type WaitKind string

const WAIT_INPUT WaitKind = "INPUT"
const WAIT_TIMER WaitKind = "TIMER"
const WAIT_WEBHOOK WaitKind = "WEBHOOK"

// WaitCondition records why a suspended execution is parked and what event
// resolves it. An execution carries at most one at a time.
type WaitCondition struct {
	Kind          WaitKind  `json:"kind"`
	NodeId        string    `json:"nodeId"`
	InputKind     InputKind `json:"inputKind,omitempty"`
	FireAt        time.Time `json:"fireAt,omitempty"`
	CallbackToken string    `json:"callbackToken,omitempty"`
	Attempts      int       `json:"attempts,omitempty"`
}

// SubjectRef identifies who the execution runs for: a contact on a channel.
type SubjectRef struct {
	Channel string `json:"channel"`
	Contact string `json:"contact"`
}

// Key is the subject part of suspension index keys.
func (s SubjectRef) Key() string {
	return fmt.Sprintf("%s:%s", s.Channel, s.Contact)
}

// ExecutionContext is the durable per-execution state: graph position,
// session variables and the active wait condition. The engine is the sole
// writer; everything else reads snapshots.
type ExecutionContext struct {
	Id            string           `json:"id"`
	FlowId        string           `json:"flowId"`
	FlowVersion   int              `json:"flowVersion"`
	Subject       SubjectRef       `json:"subject"`
	CurrentNodeId string           `json:"currentNodeId"`
	State         ExecutionState   `json:"state"`
	Variables     map[string]Value `json:"variables"`
	Waiting       *WaitCondition   `json:"waiting,omitempty"`
	FailureReason string           `json:"failureReason,omitempty"`
	// TerminationReason records why a TERMINATED execution stopped: the
	// terminal node's reason or the operator supplied one.
	TerminationReason string    `json:"terminationReason,omitempty"`
	StartedAt         time.Time `json:"startedAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Snapshot returns a plain map of the session variables for script engines
// and observers.
func (c *ExecutionContext) Snapshot() map[string]any {
	out := make(map[string]any, len(c.Variables))
	for k, v := range c.Variables {
		out[k] = v.AsInterface()
	}
	return out
}
