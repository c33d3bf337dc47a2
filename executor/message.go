package executor

import (
	"fmt"

	"github.com/jornadahq/jornada/logger"
	"github.com/jornadahq/jornada/model"
	"github.com/jornadahq/jornada/template"
	"go.uber.org/zap"
)

// executeMessage renders and sends the message. A message with buttons parks
// the execution until the subject picks one; the chosen button id selects the
// matching labelled edge when the graph draws one per button.
func (r *Registry) executeMessage(sc *stepContext, node model.Node) Outcome {
	cfg := node.Config.(*model.MessageConfig)

	if sc.resumingAt(node.Id) {
		choice := sc.event.Content
		if sc.flow.HasEdge(node.Id, choice) {
			return AdvanceHandle(choice)
		}
		return Advance()
	}

	content := template.Interpolate(cfg.Content, sc)
	_, err := r.messenger.SendMessage(sc.ctx, sc.execCtx.Subject, content, cfg.Buttons)
	if err != nil {
		return Fail(fmt.Errorf("message send failed: %w", err))
	}
	logger.Debug("message sent", zap.String("executionId", sc.execCtx.Id), zap.String("node", node.Id))
	if len(cfg.Buttons) > 0 {
		return Suspend(model.WaitCondition{
			Kind:      model.WAIT_INPUT,
			NodeId:    node.Id,
			InputKind: model.INPUT_KIND_BUTTON,
		})
	}
	return Advance()
}

// executeMedia renders an attachment or redirect and advances. These nodes
// have no execution semantics beyond the side effect.
func (r *Registry) executeMedia(sc *stepContext, node model.Node) Outcome {
	cfg := node.Config.(*model.MediaConfig)
	url := template.Interpolate(cfg.URL, sc)
	caption := template.Interpolate(cfg.Caption, sc)
	_, err := r.messenger.SendAttachment(sc.ctx, sc.execCtx.Subject, node.Type, url, caption)
	if err != nil {
		return Fail(fmt.Errorf("%s send failed: %w", node.Type, err))
	}
	return Advance()
}
