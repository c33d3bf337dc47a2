package executor

import (
	"github.com/jornadahq/jornada/model"
)

type OutcomeKind string

const OUTCOME_ADVANCE OutcomeKind = "ADVANCE"
const OUTCOME_SUSPEND OutcomeKind = "SUSPEND"
const OUTCOME_TERMINATE OutcomeKind = "TERMINATE"
const OUTCOME_FAIL OutcomeKind = "FAIL"

// Outcome is the executor contract: exactly one of advance, suspend,
// terminate or fail. It is consumed immediately by the engine and never
// persisted.
type Outcome struct {
	Kind   OutcomeKind
	Handle string
	// JumpTo bypasses edge lookup and moves straight to a node id.
	JumpTo string
	Wait   *model.WaitCondition
	Reason string
	Err    error
}

func Advance() Outcome {
	return Outcome{Kind: OUTCOME_ADVANCE}
}

func AdvanceHandle(handle string) Outcome {
	return Outcome{Kind: OUTCOME_ADVANCE, Handle: handle}
}

func Jump(target string) Outcome {
	return Outcome{Kind: OUTCOME_ADVANCE, JumpTo: target}
}

func Suspend(wait model.WaitCondition) Outcome {
	return Outcome{Kind: OUTCOME_SUSPEND, Wait: &wait}
}

func Terminate(reason string) Outcome {
	return Outcome{Kind: OUTCOME_TERMINATE, Reason: reason}
}

func Fail(err error) Outcome {
	return Outcome{Kind: OUTCOME_FAIL, Err: err}
}
