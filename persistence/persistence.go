package persistence

import (
	"fmt"
	"time"

	"github.com/jornadahq/jornada/model"
)

type StorageLayerError struct {
	Message string
}

func (e StorageLayerError) Error() string {
	return fmt.Sprintf("storage error: %s", e.Message)
}

type NotFoundError struct {
	Kind string
	Key  string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Key)
}

// MetadataStorage persists versioned flow graphs. Saving always writes a new
// version; existing versions are immutable so running executions never change
// behavior mid flight.
type MetadataStorage interface {
	SaveFlowGraph(g *model.FlowGraph) error
	GetFlowGraph(flowId string, version int) (*model.FlowGraph, error)
	GetLatestFlowGraph(flowId string) (*model.FlowGraph, error)
}

// Storage is the durable home of execution state: contexts, the suspension
// indexes that route events back to parked executions, and flow-scoped
// global variables.
type Storage interface {
	SaveExecution(execCtx *model.ExecutionContext) error
	GetExecution(executionId string) (*model.ExecutionContext, error)

	// ClaimResume atomically transitions the execution from SUSPENDED to
	// RUNNING. It returns false when the execution is in any other state,
	// so at most one event delivery wins a wake-up.
	ClaimResume(executionId string) (bool, error)

	// Input waits are keyed by (input kind, subject): one active input wait
	// per kind and subject. Parking over an entry held by another execution
	// replaces it and returns the evicted execution id, so the caller can
	// retire the execution that just lost its wake-up path.
	ParkInput(kind model.InputKind, subjectKey string, executionId string) (string, error)
	ResolveInput(kind model.InputKind, subjectKey string) (string, bool, error)

	// Timer waits are a time index polled by the timer sweeper. PollTimers
	// removes and returns the executions due at now.
	ParkTimer(executionId string, fireAt time.Time) error
	PollTimers(now time.Time) ([]string, error)

	// Webhook waits map a callback token to the parked execution.
	ParkWebhook(token string, executionId string) error
	ResolveWebhook(token string) (string, bool, error)

	// ClearWait removes whatever suspension index entry the wait condition
	// created, used when an execution is terminated while parked.
	ClearWait(execCtx *model.ExecutionContext) error

	SetGlobalVariable(flowId string, name string, value model.Value) error
	GetGlobalVariable(flowId string, name string) (model.Value, bool, error)
}
