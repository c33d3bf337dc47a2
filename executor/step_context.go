package executor

import (
	"context"
	"strings"

	"github.com/jornadahq/jornada/flow"
	"github.com/jornadahq/jornada/model"
)

const FIELD_MESSAGE_CONTENT string = "message.content"
const FIELD_PREFIX_CONTEXT string = "context."
const FIELD_PREFIX_CONTACT string = "contact."

// stepContext is the read/write surface a single step execution sees:
// session variables first, then flow globals, then contact fields.
type stepContext struct {
	ctx     context.Context
	reg     *Registry
	flow    *flow.Flow
	execCtx *model.ExecutionContext
	event   *model.InboundEvent
}

// Lookup implements template.Resolver.
func (sc *stepContext) Lookup(name string) (model.Value, bool) {
	if v, ok := sc.execCtx.Variables[name]; ok {
		return v, true
	}
	if v, ok, err := sc.reg.storage.GetGlobalVariable(sc.execCtx.FlowId, name); err == nil && ok {
		return v, true
	}
	return model.Value{}, false
}

// ResolveField implements condition.FieldResolver. "message.content" reads
// the triggering event, "contact.<field>" reads through the contact store,
// "context.<name>" and bare names read the variable store.
func (sc *stepContext) ResolveField(field string) (model.Value, bool) {
	if field == FIELD_MESSAGE_CONTENT {
		if sc.event == nil {
			return model.Value{}, false
		}
		return model.StringValue(sc.event.Content), true
	}
	if name, ok := strings.CutPrefix(field, FIELD_PREFIX_CONTACT); ok {
		v, found, err := sc.reg.contacts.ReadField(sc.ctx, sc.execCtx.Subject, name)
		if err != nil || !found {
			return model.Value{}, false
		}
		return v, true
	}
	name := strings.TrimPrefix(field, FIELD_PREFIX_CONTEXT)
	return sc.Lookup(name)
}

// setVariable routes a write to its namespace: contact fields through the
// contact store, globals to flow storage, everything else to the session.
func (sc *stepContext) setVariable(name string, scope model.VariableScope, value model.Value) error {
	if field, ok := strings.CutPrefix(name, FIELD_PREFIX_CONTACT); ok {
		return sc.reg.contacts.WriteField(sc.ctx, sc.execCtx.Subject, field, value)
	}
	if scope == model.SCOPE_GLOBAL {
		return sc.reg.storage.SetGlobalVariable(sc.execCtx.FlowId, name, value)
	}
	sc.execCtx.Variables[name] = value
	return nil
}

// resumingAt reports whether this step runs as the resume of a suspension on
// the given node, with the resolving event in hand.
func (sc *stepContext) resumingAt(nodeId string) bool {
	return sc.event != nil &&
		sc.execCtx.Waiting != nil &&
		sc.execCtx.Waiting.NodeId == nodeId
}
