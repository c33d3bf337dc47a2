package executor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jornadahq/jornada/model"
	"github.com/jornadahq/jornada/template"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
var phonePattern = regexp.MustCompile(`^\+?[0-9]{8,15}$`)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"02/01/2006",
}

func inputKindFor(nodeType model.NodeType) model.InputKind {
	switch nodeType {
	case model.NODE_TYPE_EMAIL_INPUT:
		return model.INPUT_KIND_EMAIL
	case model.NODE_TYPE_NUMBER_INPUT:
		return model.INPUT_KIND_NUMBER
	case model.NODE_TYPE_PHONE_INPUT:
		return model.INPUT_KIND_PHONE
	case model.NODE_TYPE_DATE_INPUT:
		return model.INPUT_KIND_DATE
	case model.NODE_TYPE_FILE_UPLOAD:
		return model.INPUT_KIND_FILE
	}
	return model.INPUT_KIND_TEXT
}

// executeInput prompts on first visit and parks the execution. On resume the
// reply is validated against the node's constraints; a bad reply re-prompts
// the same node until the attempt budget runs out.
func (r *Registry) executeInput(sc *stepContext, node model.Node) Outcome {
	cfg := node.Config.(*model.InputConfig)
	kind := inputKindFor(node.Type)

	if !sc.resumingAt(node.Id) {
		if len(cfg.Prompt) > 0 {
			prompt := template.Interpolate(cfg.Prompt, sc)
			if _, err := r.messenger.SendMessage(sc.ctx, sc.execCtx.Subject, prompt, nil); err != nil {
				return Fail(fmt.Errorf("input prompt send failed: %w", err))
			}
		}
		return Suspend(model.WaitCondition{
			Kind:      model.WAIT_INPUT,
			NodeId:    node.Id,
			InputKind: kind,
		})
	}

	value, err := validateInput(kind, cfg, sc.event)
	if err != nil {
		attempts := sc.execCtx.Waiting.Attempts + 1
		maxAttempts := cfg.MaxAttempts
		if maxAttempts == 0 {
			maxAttempts = DEFAULT_INPUT_ATTEMPTS
		}
		if attempts >= maxAttempts {
			return Fail(fmt.Errorf("input for %q invalid after %d attempts: %w", cfg.VariableName, attempts, err))
		}
		if _, sendErr := r.messenger.SendMessage(sc.ctx, sc.execCtx.Subject, err.Error(), nil); sendErr != nil {
			return Fail(fmt.Errorf("input re-prompt send failed: %w", sendErr))
		}
		return Suspend(model.WaitCondition{
			Kind:      model.WAIT_INPUT,
			NodeId:    node.Id,
			InputKind: kind,
			Attempts:  attempts,
		})
	}

	if err := sc.setVariable(cfg.VariableName, model.SCOPE_SESSION, value); err != nil {
		return Fail(err)
	}
	return Advance()
}

func validateInput(kind model.InputKind, cfg *model.InputConfig, event *model.InboundEvent) (model.Value, error) {
	content := strings.TrimSpace(event.Content)
	switch kind {
	case model.INPUT_KIND_EMAIL:
		if !emailPattern.MatchString(content) {
			return model.Value{}, fmt.Errorf("%q is not a valid email address", content)
		}
		return model.StringValue(content), nil
	case model.INPUT_KIND_NUMBER:
		n, err := strconv.ParseFloat(content, 64)
		if err != nil {
			return model.Value{}, fmt.Errorf("%q is not a number", content)
		}
		if cfg.Min != nil && n < *cfg.Min {
			return model.Value{}, fmt.Errorf("value %v is below the minimum %v", n, *cfg.Min)
		}
		if cfg.Max != nil && n > *cfg.Max {
			return model.Value{}, fmt.Errorf("value %v is above the maximum %v", n, *cfg.Max)
		}
		return model.NumberValue(n), nil
	case model.INPUT_KIND_PHONE:
		normalized := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(content)
		if !phonePattern.MatchString(normalized) {
			return model.Value{}, fmt.Errorf("%q is not a valid phone number", content)
		}
		return model.StringValue(normalized), nil
	case model.INPUT_KIND_DATE:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, content); err == nil {
				return model.TimestampValue(t), nil
			}
		}
		return model.Value{}, fmt.Errorf("%q is not a recognized date", content)
	case model.INPUT_KIND_FILE:
		return validateFile(cfg, event)
	}
	return model.StringValue(content), nil
}

func validateFile(cfg *model.InputConfig, event *model.InboundEvent) (model.Value, error) {
	ref := strings.TrimSpace(event.Content)
	if len(ref) == 0 {
		return model.Value{}, fmt.Errorf("no file received")
	}
	if len(cfg.FileTypes) > 0 {
		matched := false
		for _, ext := range cfg.FileTypes {
			if strings.HasSuffix(strings.ToLower(ref), strings.ToLower(ext)) {
				matched = true
				break
			}
		}
		if !matched {
			return model.Value{}, fmt.Errorf("file type not allowed, expected one of %v", cfg.FileTypes)
		}
	}
	if cfg.MaxFileBytes > 0 {
		if size, ok := event.Payload["sizeBytes"].(float64); ok && int64(size) > cfg.MaxFileBytes {
			return model.Value{}, fmt.Errorf("file exceeds the %d byte limit", cfg.MaxFileBytes)
		}
	}
	return model.StringValue(ref), nil
}
