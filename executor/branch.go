package executor

import (
	"fmt"

	"github.com/jornadahq/jornada/condition"
	"github.com/jornadahq/jornada/model"
	"github.com/spaolacci/murmur3"
)

// executeCondition evaluates the comparison and picks the true/false handle.
// Evaluation errors fail the execution; a misconfigured condition must be
// observable, not a silently taken branch.
func (r *Registry) executeCondition(sc *stepContext, node model.Node) Outcome {
	cfg := node.Config.(*model.ConditionConfig)
	result, err := condition.Evaluate(cfg, sc)
	if err != nil {
		return Fail(fmt.Errorf("condition on node %s: %w", node.Id, err))
	}
	if result {
		return AdvanceHandle(model.HANDLE_TRUE)
	}
	return AdvanceHandle(model.HANDLE_FALSE)
}

// executeABTest splits traffic deterministically: the same execution always
// lands on the same variant, so a replayed or retried drive cycle cannot
// flip the branch.
func (r *Registry) executeABTest(sc *stepContext, node model.Node) Outcome {
	cfg := node.Config.(*model.ABTestConfig)
	seed := fmt.Sprintf("%s:%s", sc.execCtx.Id, node.Id)
	bucket := int(murmur3.Sum32([]byte(seed)) % 100)
	if bucket < cfg.Percent() {
		return AdvanceHandle(model.HANDLE_VARIANT_A)
	}
	return AdvanceHandle(model.HANDLE_VARIANT_B)
}

// executeJump moves straight to the target node, bypassing edge lookup. The
// END sentinel completes the execution.
func (r *Registry) executeJump(sc *stepContext, node model.Node) Outcome {
	cfg := node.Config.(*model.JumpConfig)
	if cfg.TargetStepId == model.JUMP_TARGET_END {
		return Jump(model.JUMP_TARGET_END)
	}
	if _, ok := sc.flow.Node(cfg.TargetStepId); !ok {
		return Fail(fmt.Errorf("jump node %s targets unknown node %s", node.Id, cfg.TargetStepId))
	}
	return Jump(cfg.TargetStepId)
}
