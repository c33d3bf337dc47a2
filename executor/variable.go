package executor

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/dop251/goja"
	"github.com/jornadahq/jornada/model"
	"github.com/jornadahq/jornada/template"
)

// executeSetVariable interpolates the configured value and writes it with
// the configured kind and scope.
func (r *Registry) executeSetVariable(sc *stepContext, node model.Node) Outcome {
	cfg := node.Config.(*model.SetVariableConfig)
	raw := template.Interpolate(cfg.Value, sc)
	value, err := coerceValue(raw, cfg.ValueKind)
	if err != nil {
		return Fail(fmt.Errorf("setVariable %s: %w", cfg.VariableName, err))
	}
	if err := sc.setVariable(cfg.VariableName, cfg.Scope, value); err != nil {
		return Fail(err)
	}
	return Advance()
}

func coerceValue(raw string, kind model.ValueKind) (model.Value, error) {
	switch kind {
	case "", model.VALUE_STRING:
		return model.StringValue(raw), nil
	case model.VALUE_NUMBER:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return model.Value{}, fmt.Errorf("%q is not a number", raw)
		}
		return model.NumberValue(n), nil
	case model.VALUE_BOOLEAN:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return model.Value{}, fmt.Errorf("%q is not a boolean", raw)
		}
		return model.BooleanValue(b), nil
	case model.VALUE_TIMESTAMP:
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return model.Value{}, fmt.Errorf("%q is not an RFC3339 timestamp", raw)
		}
		return model.TimestampValue(t), nil
	case model.VALUE_JSON:
		var doc any
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return model.Value{}, fmt.Errorf("%q is not valid json", raw)
		}
		return model.JSONValue(doc), nil
	}
	return model.Value{}, fmt.Errorf("unknown value kind %q", kind)
}

// executeScript runs the configured javascript over a $ binding of the
// session variables and merges the mutated object back.
func (r *Registry) executeScript(sc *stepContext, node model.Node) Outcome {
	cfg := node.Config.(*model.ScriptConfig)
	data, err := json.Marshal(sc.execCtx.Snapshot())
	if err != nil {
		return Fail(err)
	}
	expression := fmt.Sprintf("var $ = %s;\n%s", data, cfg.Expression)
	vm := goja.New()
	if _, err := vm.RunString(expression); err != nil {
		return Fail(fmt.Errorf("error executing script on node %s: %w", node.Id, err))
	}
	val, err := vm.RunString("$")
	if err != nil {
		return Fail(fmt.Errorf("error executing script on node %s: %w", node.Id, err))
	}
	res, err := json.Marshal(val.Export())
	if err != nil {
		return Fail(err)
	}
	var output map[string]any
	if err := json.Unmarshal(res, &output); err != nil {
		return Fail(fmt.Errorf("script on node %s did not produce an object: %w", node.Id, err))
	}
	for k, v := range output {
		sc.execCtx.Variables[k] = model.ValueOf(v)
	}
	return Advance()
}
