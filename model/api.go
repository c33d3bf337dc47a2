package model

// Request and response shapes for the REST surface.

type StartExecutionRequest struct {
	FlowId  string     `json:"flowId"`
	Subject SubjectRef `json:"subject"`
}

type TerminateExecutionRequest struct {
	Reason string `json:"reason,omitempty"`
}

type InboundMessageRequest struct {
	Subject SubjectRef `json:"subject"`
	Content string     `json:"content"`
}

// ExecutionView is the observer snapshot returned by the state endpoint.
type ExecutionView struct {
	Id                string         `json:"id"`
	FlowId            string         `json:"flowId"`
	FlowVersion       int            `json:"flowVersion"`
	State             ExecutionState `json:"state"`
	CurrentNodeId     string         `json:"currentNodeId"`
	Waiting           *WaitCondition `json:"waiting,omitempty"`
	Variables         map[string]any `json:"variables"`
	FailureReason     string         `json:"failureReason,omitempty"`
	TerminationReason string         `json:"terminationReason,omitempty"`
}
