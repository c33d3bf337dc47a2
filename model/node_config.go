package model

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

type Operator string

const OP_EQUALS Operator = "EQUALS"
const OP_NOT_EQUALS Operator = "NOT_EQUALS"
const OP_CONTAINS Operator = "CONTAINS"
const OP_NOT_CONTAINS Operator = "NOT_CONTAINS"
const OP_GREATER_THAN Operator = "GREATER_THAN"
const OP_LESS_THAN Operator = "LESS_THAN"
const OP_REGEX Operator = "REGEX"

type InputKind string

const INPUT_KIND_TEXT InputKind = "text"
const INPUT_KIND_EMAIL InputKind = "email"
const INPUT_KIND_NUMBER InputKind = "number"
const INPUT_KIND_PHONE InputKind = "phone"
const INPUT_KIND_DATE InputKind = "date"
const INPUT_KIND_FILE InputKind = "file"
const INPUT_KIND_BUTTON InputKind = "button"

// InputKinds lists every kind an input wait can be parked under, in the
// order inbound messages are matched against them.
func InputKinds() []InputKind {
	return []InputKind{
		INPUT_KIND_TEXT,
		INPUT_KIND_BUTTON,
		INPUT_KIND_EMAIL,
		INPUT_KIND_NUMBER,
		INPUT_KIND_PHONE,
		INPUT_KIND_DATE,
		INPUT_KIND_FILE,
	}
}

type VariableScope string

const SCOPE_SESSION VariableScope = "session"
const SCOPE_GLOBAL VariableScope = "global"

type WaitFor string

const WAIT_FOR_TIME WaitFor = "time"
const WAIT_FOR_USER WaitFor = "user"
const WAIT_FOR_EVENT WaitFor = "event"

// NodeConfig is the closed set of per-type node configurations. Validate is
// called at graph save time so a flow with a malformed node never activates.
type NodeConfig interface {
	Validate() error
}

type Button struct {
	Id    string `json:"id"`
	Label string `json:"label"`
}

type MessageConfig struct {
	Content string   `json:"content"`
	Buttons []Button `json:"buttons,omitempty"`
}

func (c *MessageConfig) Validate() error {
	if len(c.Content) == 0 {
		return fmt.Errorf("message content can not be empty")
	}
	for _, b := range c.Buttons {
		if len(b.Id) == 0 {
			return fmt.Errorf("message button without id")
		}
	}
	return nil
}

type InputConfig struct {
	Prompt       string   `json:"prompt"`
	VariableName string   `json:"variableName"`
	MaxAttempts  int      `json:"maxAttempts,omitempty"`
	Min          *float64 `json:"min,omitempty"`
	Max          *float64 `json:"max,omitempty"`
	MaxFileBytes int64    `json:"maxFileBytes,omitempty"`
	FileTypes    []string `json:"fileTypes,omitempty"`
}

func (c *InputConfig) Validate() error {
	if len(c.VariableName) == 0 {
		return fmt.Errorf("input node should have variableName")
	}
	if c.Min != nil && c.Max != nil && *c.Min > *c.Max {
		return fmt.Errorf("input min %v greater than max %v", *c.Min, *c.Max)
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("input maxAttempts can not be negative")
	}
	return nil
}

type ConditionConfig struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value"`
}

func (c *ConditionConfig) Validate() error {
	if len(c.Field) == 0 {
		return fmt.Errorf("condition field can not be empty")
	}
	switch c.Operator {
	case OP_EQUALS, OP_NOT_EQUALS, OP_CONTAINS, OP_NOT_CONTAINS,
		OP_GREATER_THAN, OP_LESS_THAN:
	case OP_REGEX:
		if _, err := regexp.Compile(c.Value); err != nil {
			return fmt.Errorf("condition regex %q does not compile: %w", c.Value, err)
		}
	default:
		return fmt.Errorf("unknown condition operator %q", c.Operator)
	}
	return nil
}

type SetVariableConfig struct {
	VariableName string        `json:"variableName"`
	Value        string        `json:"value"`
	ValueKind    ValueKind     `json:"valueKind,omitempty"`
	Scope        VariableScope `json:"scope,omitempty"`
}

func (c *SetVariableConfig) Validate() error {
	if len(c.VariableName) == 0 {
		return fmt.Errorf("setVariable node should have variableName")
	}
	switch c.Scope {
	case "", SCOPE_SESSION, SCOPE_GLOBAL:
	default:
		return fmt.Errorf("unknown variable scope %q", c.Scope)
	}
	switch c.ValueKind {
	case "", VALUE_STRING, VALUE_NUMBER, VALUE_BOOLEAN, VALUE_TIMESTAMP, VALUE_JSON:
	default:
		return fmt.Errorf("unknown value kind %q", c.ValueKind)
	}
	return nil
}

type FieldMapping struct {
	Path         string `json:"path"`
	VariableName string `json:"variableName"`
}

type HTTPRequestConfig struct {
	Method         string            `json:"method"`
	URL            string            `json:"url"`
	Headers        map[string]string `json:"headers,omitempty"`
	Body           string            `json:"body,omitempty"`
	VariableName   string            `json:"variableName,omitempty"`
	FieldMappings  []FieldMapping    `json:"fieldMappings,omitempty"`
	TimeoutSeconds int               `json:"timeoutSeconds,omitempty"`
}

func (c *HTTPRequestConfig) Validate() error {
	switch strings.ToUpper(c.Method) {
	case "GET", "POST", "PUT", "PATCH", "DELETE", "HEAD":
	default:
		return fmt.Errorf("unsupported http method %q", c.Method)
	}
	if _, err := url.Parse(c.URL); err != nil || len(c.URL) == 0 {
		return fmt.Errorf("invalid http url %q", c.URL)
	}
	for _, m := range c.FieldMappings {
		if len(m.Path) == 0 || len(m.VariableName) == 0 {
			return fmt.Errorf("http field mapping requires path and variableName")
		}
	}
	return nil
}

type DelayConfig struct {
	DelaySeconds int `json:"delaySeconds"`
}

func (c *DelayConfig) Validate() error {
	if c.DelaySeconds <= 0 {
		return fmt.Errorf("delay value %d wrong", c.DelaySeconds)
	}
	return nil
}

type WaitConfig struct {
	WaitFor        WaitFor `json:"waitFor"`
	DelaySeconds   int     `json:"delaySeconds,omitempty"`
	TimeoutSeconds int     `json:"timeoutSeconds,omitempty"`
	// VariableName receives the webhook payload when waitFor is "event".
	VariableName string `json:"variableName,omitempty"`
}

func (c *WaitConfig) Validate() error {
	switch c.WaitFor {
	case WAIT_FOR_TIME:
		if c.DelaySeconds <= 0 {
			return fmt.Errorf("wait for time requires positive delaySeconds")
		}
	case WAIT_FOR_USER, WAIT_FOR_EVENT:
	default:
		return fmt.Errorf("unknown waitFor %q", c.WaitFor)
	}
	return nil
}

type ABTestConfig struct {
	SplitPercent int `json:"splitPercent,omitempty"`
}

func (c *ABTestConfig) Validate() error {
	if c.SplitPercent < 0 || c.SplitPercent > 100 {
		return fmt.Errorf("ab test splitPercent %d out of range", c.SplitPercent)
	}
	return nil
}

// Percent returns the variantA share, defaulting to an even split.
func (c *ABTestConfig) Percent() int {
	if c.SplitPercent == 0 {
		return 50
	}
	return c.SplitPercent
}

type JumpConfig struct {
	TargetStepId string `json:"targetStepId"`
}

func (c *JumpConfig) Validate() error {
	if len(c.TargetStepId) == 0 {
		return fmt.Errorf("jump node should have targetStepId")
	}
	return nil
}

type HandoffConfig struct {
	Queue     string `json:"queue,omitempty"`
	Terminate bool   `json:"terminate,omitempty"`
}

func (c *HandoffConfig) Validate() error {
	return nil
}

type TerminalConfig struct {
	Reason string `json:"reason,omitempty"`
}

func (c *TerminalConfig) Validate() error {
	return nil
}

type ScriptConfig struct {
	Expression string `json:"expression"`
}

func (c *ScriptConfig) Validate() error {
	if len(c.Expression) == 0 {
		return fmt.Errorf("script expression can not be empty")
	}
	return nil
}

// MediaConfig covers the render-and-advance node types (redirect, image,
// video, audio, embed).
type MediaConfig struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

func (c *MediaConfig) Validate() error {
	if len(c.URL) == 0 {
		return fmt.Errorf("media node should have url")
	}
	return nil
}
