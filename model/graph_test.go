package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNodeConfigDecode(t *testing.T) {
	raw := `{
		"id": "welcome",
		"active": true,
		"nodes": [
			{"id": "start", "type": "START"},
			{"id": "greet", "type": "MESSAGE", "config": {"content": "Hi {{name}}", "buttons": [{"id": "go", "label": "Go"}]}},
			{"id": "check", "type": "CONDITION", "config": {"field": "age", "operator": "GREATER_THAN", "value": "18"}},
			{"id": "pause", "type": "DELAY", "config": {"delaySeconds": 60}},
			{"id": "ask", "type": "NUMBER_INPUT", "config": {"prompt": "how many?", "variableName": "qty", "min": 1, "max": 10}}
		],
		"edges": [
			{"id": "e1", "source": "start", "target": "greet"}
		]
	}`
	var g FlowGraph
	require.NoError(t, json.Unmarshal([]byte(raw), &g))

	msg := g.Nodes[1].Config.(*MessageConfig)
	require.Equal(t, "Hi {{name}}", msg.Content)
	require.Equal(t, "go", msg.Buttons[0].Id)

	cond := g.Nodes[2].Config.(*ConditionConfig)
	require.Equal(t, OP_GREATER_THAN, cond.Operator)

	require.Equal(t, 60, g.Nodes[3].Config.(*DelayConfig).DelaySeconds)

	input := g.Nodes[4].Config.(*InputConfig)
	require.Equal(t, "qty", input.VariableName)
	require.Equal(t, 1.0, *input.Min)
	require.Equal(t, 10.0, *input.Max)

	require.Nil(t, g.Nodes[0].Config)
}

func TestNodeConfigDecodeUnknownType(t *testing.T) {
	var n Node
	err := json.Unmarshal([]byte(`{"id": "x", "type": "TELEPORT"}`), &n)
	require.Error(t, err)
}

func TestValueString(t *testing.T) {
	for scenario, tc := range map[string]struct {
		value Value
		want  string
	}{
		"integer without decimal": {NumberValue(42), "42"},
		"fraction keeps decimals": {NumberValue(2.5), "2.5"},
		"boolean":                 {BooleanValue(true), "true"},
		"json compact":            {JSONValue(map[string]any{"a": 1.0}), `{"a":1}`},
		"plain string":            {StringValue("hi"), "hi"},
	} {
		t.Run(scenario, func(t *testing.T) {
			require.Equal(t, tc.want, tc.value.String())
		})
	}
}

func TestValueAsNumber(t *testing.T) {
	n, err := StringValue("42.5").AsNumber()
	require.NoError(t, err)
	require.Equal(t, 42.5, n)

	_, err = StringValue("abc").AsNumber()
	require.Error(t, err)

	_, err = BooleanValue(true).AsNumber()
	require.Error(t, err)
}
