package executor

import (
	"context"
	"testing"

	"github.com/jornadahq/jornada/flow"
	"github.com/jornadahq/jornada/model"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, g *model.FlowGraph) *flow.Flow {
	t.Helper()
	fl, err := flow.Compile(g)
	require.NoError(t, err)
	return fl
}

func linearGraph(node model.Node) *model.FlowGraph {
	return &model.FlowGraph{
		Id: "welcome", Version: 1, Active: true,
		Nodes: []model.Node{
			{Id: "start", Type: model.NODE_TYPE_START},
			node,
			{Id: "done", Type: model.NODE_TYPE_MESSAGE, Config: &model.MessageConfig{Content: "bye"}},
		},
		Edges: []model.Edge{
			{Id: "e1", Source: "start", Target: node.Id},
			{Id: "e2", Source: node.Id, Target: "done"},
		},
	}
}

func TestExecuteMessage(t *testing.T) {
	rig := newTestRig()
	node := model.Node{Id: "greet", Type: model.NODE_TYPE_MESSAGE,
		Config: &model.MessageConfig{Content: "Hi {{name}}"}}
	fl := compile(t, linearGraph(node))
	execCtx := newExecCtx()
	execCtx.Variables["name"] = model.StringValue("Maria")

	outcome := rig.registry.Execute(context.Background(), fl, node, execCtx, nil)
	require.Equal(t, OUTCOME_ADVANCE, outcome.Kind)
	require.Equal(t, "Hi Maria", rig.messenger.last().content)
}

func TestExecuteMessageUnresolvedPlaceholder(t *testing.T) {
	rig := newTestRig()
	node := model.Node{Id: "greet", Type: model.NODE_TYPE_MESSAGE,
		Config: &model.MessageConfig{Content: "Hi {{name}}"}}
	fl := compile(t, linearGraph(node))

	outcome := rig.registry.Execute(context.Background(), fl, node, newExecCtx(), nil)
	require.Equal(t, OUTCOME_ADVANCE, outcome.Kind)
	require.Equal(t, "Hi {{name}}", rig.messenger.last().content)
}

func TestExecuteMessageWithButtons(t *testing.T) {
	rig := newTestRig()
	node := model.Node{Id: "menu", Type: model.NODE_TYPE_MESSAGE,
		Config: &model.MessageConfig{
			Content: "pick one",
			Buttons: []model.Button{{Id: "buy", Label: "Buy"}, {Id: "help", Label: "Help"}},
		}}
	g := &model.FlowGraph{
		Id: "welcome", Version: 1, Active: true,
		Nodes: []model.Node{
			{Id: "start", Type: model.NODE_TYPE_START},
			node,
			{Id: "buyStep", Type: model.NODE_TYPE_MESSAGE, Config: &model.MessageConfig{Content: "buying"}},
			{Id: "helpStep", Type: model.NODE_TYPE_MESSAGE, Config: &model.MessageConfig{Content: "helping"}},
		},
		Edges: []model.Edge{
			{Id: "e1", Source: "start", Target: "menu"},
			{Id: "e2", Source: "menu", Target: "buyStep", Handle: "buy"},
			{Id: "e3", Source: "menu", Target: "helpStep", Handle: "help"},
		},
	}
	fl := compile(t, g)
	execCtx := newExecCtx()

	outcome := rig.registry.Execute(context.Background(), fl, node, execCtx, nil)
	require.Equal(t, OUTCOME_SUSPEND, outcome.Kind)
	require.Equal(t, model.WAIT_INPUT, outcome.Wait.Kind)
	require.Equal(t, model.INPUT_KIND_BUTTON, outcome.Wait.InputKind)

	execCtx.Waiting = outcome.Wait
	event := &model.InboundEvent{Type: model.EVENT_INBOUND_MESSAGE, Content: "help"}
	outcome = rig.registry.Execute(context.Background(), fl, node, execCtx, event)
	require.Equal(t, OUTCOME_ADVANCE, outcome.Kind)
	require.Equal(t, "help", outcome.Handle)
}

func TestExecuteInputRetry(t *testing.T) {
	rig := newTestRig()
	node := model.Node{Id: "askEmail", Type: model.NODE_TYPE_EMAIL_INPUT,
		Config: &model.InputConfig{Prompt: "your email?", VariableName: "email", MaxAttempts: 2}}
	fl := compile(t, linearGraph(node))
	execCtx := newExecCtx()

	outcome := rig.registry.Execute(context.Background(), fl, node, execCtx, nil)
	require.Equal(t, OUTCOME_SUSPEND, outcome.Kind)
	require.Equal(t, "your email?", rig.messenger.last().content)

	execCtx.Waiting = outcome.Wait
	event := &model.InboundEvent{Type: model.EVENT_INBOUND_MESSAGE, Content: "not-an-email"}
	outcome = rig.registry.Execute(context.Background(), fl, node, execCtx, event)
	require.Equal(t, OUTCOME_SUSPEND, outcome.Kind)
	require.Equal(t, 1, outcome.Wait.Attempts)

	// budget of 2 exhausted on the second bad reply
	execCtx.Waiting = outcome.Wait
	outcome = rig.registry.Execute(context.Background(), fl, node, execCtx, event)
	require.Equal(t, OUTCOME_FAIL, outcome.Kind)
}

func TestExecuteInputSuccess(t *testing.T) {
	rig := newTestRig()
	node := model.Node{Id: "askCity", Type: model.NODE_TYPE_INPUT,
		Config: &model.InputConfig{Prompt: "which city?", VariableName: "city"}}
	fl := compile(t, linearGraph(node))
	execCtx := newExecCtx()

	outcome := rig.registry.Execute(context.Background(), fl, node, execCtx, nil)
	require.Equal(t, OUTCOME_SUSPEND, outcome.Kind)

	execCtx.Waiting = outcome.Wait
	event := &model.InboundEvent{Type: model.EVENT_INBOUND_MESSAGE, Content: "Recife"}
	outcome = rig.registry.Execute(context.Background(), fl, node, execCtx, event)
	require.Equal(t, OUTCOME_ADVANCE, outcome.Kind)
	require.Equal(t, "Recife", execCtx.Variables["city"].Str)
}

func TestExecuteNumberInputRange(t *testing.T) {
	rig := newTestRig()
	min, max := 1.0, 10.0
	node := model.Node{Id: "askQty", Type: model.NODE_TYPE_NUMBER_INPUT,
		Config: &model.InputConfig{VariableName: "qty", Min: &min, Max: &max}}
	fl := compile(t, linearGraph(node))
	execCtx := newExecCtx()
	execCtx.Waiting = &model.WaitCondition{Kind: model.WAIT_INPUT, NodeId: "askQty", InputKind: model.INPUT_KIND_NUMBER}

	event := &model.InboundEvent{Type: model.EVENT_INBOUND_MESSAGE, Content: "50"}
	outcome := rig.registry.Execute(context.Background(), fl, node, execCtx, event)
	require.Equal(t, OUTCOME_SUSPEND, outcome.Kind)

	execCtx.Waiting = outcome.Wait
	event = &model.InboundEvent{Type: model.EVENT_INBOUND_MESSAGE, Content: "5"}
	outcome = rig.registry.Execute(context.Background(), fl, node, execCtx, event)
	require.Equal(t, OUTCOME_ADVANCE, outcome.Kind)
	require.Equal(t, 5.0, execCtx.Variables["qty"].Num)
}

func TestExecuteCondition(t *testing.T) {
	rig := newTestRig()
	node := model.Node{Id: "check", Type: model.NODE_TYPE_CONDITION,
		Config: &model.ConditionConfig{Field: "age", Operator: model.OP_LESS_THAN, Value: "18"}}
	fl := compile(t, linearGraph(node))
	execCtx := newExecCtx()
	execCtx.Variables["age"] = model.NumberValue(15)

	outcome := rig.registry.Execute(context.Background(), fl, node, execCtx, nil)
	require.Equal(t, OUTCOME_ADVANCE, outcome.Kind)
	require.Equal(t, model.HANDLE_TRUE, outcome.Handle)

	execCtx.Variables["age"] = model.NumberValue(30)
	outcome = rig.registry.Execute(context.Background(), fl, node, execCtx, nil)
	require.Equal(t, model.HANDLE_FALSE, outcome.Handle)

	// unresolvable field fails instead of guessing a branch
	delete(execCtx.Variables, "age")
	outcome = rig.registry.Execute(context.Background(), fl, node, execCtx, nil)
	require.Equal(t, OUTCOME_FAIL, outcome.Kind)
}

func TestExecuteABTestDeterministic(t *testing.T) {
	rig := newTestRig()
	node := model.Node{Id: "split", Type: model.NODE_TYPE_AB_TEST,
		Config: &model.ABTestConfig{SplitPercent: 50}}
	fl := compile(t, linearGraph(node))
	execCtx := newExecCtx()

	first := rig.registry.Execute(context.Background(), fl, node, execCtx, nil)
	for i := 0; i < 10; i++ {
		again := rig.registry.Execute(context.Background(), fl, node, execCtx, nil)
		require.Equal(t, first.Handle, again.Handle)
	}
	require.Contains(t, []string{model.HANDLE_VARIANT_A, model.HANDLE_VARIANT_B}, first.Handle)
}

func TestExecuteSetVariable(t *testing.T) {
	rig := newTestRig()
	node := model.Node{Id: "setScore", Type: model.NODE_TYPE_SET_VARIABLE,
		Config: &model.SetVariableConfig{VariableName: "score", Value: "42", ValueKind: model.VALUE_NUMBER}}
	fl := compile(t, linearGraph(node))
	execCtx := newExecCtx()

	outcome := rig.registry.Execute(context.Background(), fl, node, execCtx, nil)
	require.Equal(t, OUTCOME_ADVANCE, outcome.Kind)
	require.Equal(t, 42.0, execCtx.Variables["score"].Num)
}

func TestExecuteSetVariableGlobalScope(t *testing.T) {
	rig := newTestRig()
	node := model.Node{Id: "setGreeting", Type: model.NODE_TYPE_SET_VARIABLE,
		Config: &model.SetVariableConfig{VariableName: "greeting", Value: "hello", Scope: model.SCOPE_GLOBAL}}
	fl := compile(t, linearGraph(node))
	execCtx := newExecCtx()

	outcome := rig.registry.Execute(context.Background(), fl, node, execCtx, nil)
	require.Equal(t, OUTCOME_ADVANCE, outcome.Kind)
	v, found, err := rig.storage.GetGlobalVariable("welcome", "greeting")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "hello", v.Str)
}

func TestExecuteHTTPRequestFieldMappings(t *testing.T) {
	rig := newTestRig()
	rig.caller.body = `{"data":{"id":"42","items":[{"sku":"a-1"}]}}`
	node := model.Node{Id: "fetch", Type: model.NODE_TYPE_HTTP_REQUEST,
		Config: &model.HTTPRequestConfig{
			Method: "GET", URL: "https://api.example.com/orders/{{orderId}}",
			VariableName: "resp",
			FieldMappings: []model.FieldMapping{
				{Path: "data.id", VariableName: "orderRef"},
				{Path: "data.items[0].sku", VariableName: "firstSku"},
				{Path: "data.missing", VariableName: "never"},
			},
		}}
	fl := compile(t, linearGraph(node))
	execCtx := newExecCtx()
	execCtx.Variables["orderId"] = model.StringValue("91")

	outcome := rig.registry.Execute(context.Background(), fl, node, execCtx, nil)
	require.Equal(t, OUTCOME_ADVANCE, outcome.Kind)
	require.Equal(t, "https://api.example.com/orders/91", rig.caller.gotURL)
	require.Equal(t, "42", execCtx.Variables["orderRef"].Str)
	require.Equal(t, "a-1", execCtx.Variables["firstSku"].Str)
	require.NotContains(t, execCtx.Variables, "never")
	require.Equal(t, model.VALUE_JSON, execCtx.Variables["resp"].Kind)
}

func TestExecuteHTTPRequestErrorStatus(t *testing.T) {
	rig := newTestRig()
	rig.caller.status = 502
	node := model.Node{Id: "fetch", Type: model.NODE_TYPE_HTTP_REQUEST,
		Config: &model.HTTPRequestConfig{Method: "GET", URL: "https://api.example.com"}}
	fl := compile(t, linearGraph(node))

	outcome := rig.registry.Execute(context.Background(), fl, node, newExecCtx(), nil)
	require.Equal(t, OUTCOME_FAIL, outcome.Kind)
}

func TestExecuteDelay(t *testing.T) {
	rig := newTestRig()
	node := model.Node{Id: "pause", Type: model.NODE_TYPE_DELAY,
		Config: &model.DelayConfig{DelaySeconds: 3600}}
	fl := compile(t, linearGraph(node))
	execCtx := newExecCtx()

	outcome := rig.registry.Execute(context.Background(), fl, node, execCtx, nil)
	require.Equal(t, OUTCOME_SUSPEND, outcome.Kind)
	require.Equal(t, model.WAIT_TIMER, outcome.Wait.Kind)
	require.False(t, outcome.Wait.FireAt.IsZero())

	execCtx.Waiting = outcome.Wait
	event := &model.InboundEvent{Type: model.EVENT_TIMER_FIRED, ExecutionId: execCtx.Id}
	outcome = rig.registry.Execute(context.Background(), fl, node, execCtx, event)
	require.Equal(t, OUTCOME_ADVANCE, outcome.Kind)
}

func TestExecuteWaitForEventStoresPayload(t *testing.T) {
	rig := newTestRig()
	node := model.Node{Id: "waitPay", Type: model.NODE_TYPE_WAIT,
		Config: &model.WaitConfig{WaitFor: model.WAIT_FOR_EVENT, VariableName: "payment"}}
	fl := compile(t, linearGraph(node))
	execCtx := newExecCtx()

	outcome := rig.registry.Execute(context.Background(), fl, node, execCtx, nil)
	require.Equal(t, OUTCOME_SUSPEND, outcome.Kind)
	require.Equal(t, model.WAIT_WEBHOOK, outcome.Wait.Kind)
	require.NotEmpty(t, outcome.Wait.CallbackToken)

	execCtx.Waiting = outcome.Wait
	event := &model.InboundEvent{
		Type:    model.EVENT_WEBHOOK_RECEIVED,
		Token:   outcome.Wait.CallbackToken,
		Payload: map[string]any{"status": "paid"},
	}
	outcome = rig.registry.Execute(context.Background(), fl, node, execCtx, event)
	require.Equal(t, OUTCOME_ADVANCE, outcome.Kind)
	require.Equal(t, model.VALUE_JSON, execCtx.Variables["payment"].Kind)
}

func TestExecuteJump(t *testing.T) {
	rig := newTestRig()
	g := &model.FlowGraph{
		Id: "welcome", Version: 1, Active: true,
		Nodes: []model.Node{
			{Id: "start", Type: model.NODE_TYPE_START},
			{Id: "back", Type: model.NODE_TYPE_JUMP, Config: &model.JumpConfig{TargetStepId: "start"}},
			{Id: "finish", Type: model.NODE_TYPE_JUMP, Config: &model.JumpConfig{TargetStepId: model.JUMP_TARGET_END}},
		},
		Edges: []model.Edge{
			{Id: "e1", Source: "start", Target: "back"},
			{Id: "e2", Source: "back", Target: "finish"},
		},
	}
	fl := compile(t, g)
	execCtx := newExecCtx()

	node, _ := fl.Node("back")
	outcome := rig.registry.Execute(context.Background(), fl, node, execCtx, nil)
	require.Equal(t, OUTCOME_ADVANCE, outcome.Kind)
	require.Equal(t, "start", outcome.JumpTo)

	node, _ = fl.Node("finish")
	outcome = rig.registry.Execute(context.Background(), fl, node, execCtx, nil)
	require.Equal(t, model.JUMP_TARGET_END, outcome.JumpTo)
}

func TestExecuteHandoff(t *testing.T) {
	rig := newTestRig()
	node := model.Node{Id: "human", Type: model.NODE_TYPE_HANDOFF,
		Config: &model.HandoffConfig{Queue: "support", Terminate: true}}
	fl := compile(t, linearGraph(node))

	outcome := rig.registry.Execute(context.Background(), fl, node, newExecCtx(), nil)
	require.Equal(t, OUTCOME_TERMINATE, outcome.Kind)
	require.Equal(t, 1, rig.handoff.requests)
}

func TestExecuteScript(t *testing.T) {
	rig := newTestRig()
	node := model.Node{Id: "calc", Type: model.NODE_TYPE_SCRIPT,
		Config: &model.ScriptConfig{Expression: "$.total = $.price * $.qty"}}
	fl := compile(t, linearGraph(node))
	execCtx := newExecCtx()
	execCtx.Variables["price"] = model.NumberValue(2.5)
	execCtx.Variables["qty"] = model.NumberValue(4)

	outcome := rig.registry.Execute(context.Background(), fl, node, execCtx, nil)
	require.Equal(t, OUTCOME_ADVANCE, outcome.Kind)
	require.Equal(t, 10.0, execCtx.Variables["total"].Num)
}

func TestExecuteConditionOnContactField(t *testing.T) {
	rig := newTestRig()
	require.NoError(t, rig.contacts.WriteField(context.Background(),
		newExecCtx().Subject, "plan", model.StringValue("pro")))
	node := model.Node{Id: "check", Type: model.NODE_TYPE_CONDITION,
		Config: &model.ConditionConfig{Field: "contact.plan", Operator: model.OP_EQUALS, Value: "pro"}}
	fl := compile(t, linearGraph(node))

	outcome := rig.registry.Execute(context.Background(), fl, node, newExecCtx(), nil)
	require.Equal(t, model.HANDLE_TRUE, outcome.Handle)
}
