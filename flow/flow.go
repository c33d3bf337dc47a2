package flow

import (
	"fmt"

	"github.com/jornadahq/jornada/model"
)

// Flow is the compiled runtime form of a graph version: node lookup by id and
// edge lookup by (source, handle). Compiled flows are immutable and safe to
// share across executions.
type Flow struct {
	Id          string
	Version     int
	StartNodeId string
	nodes       map[string]model.Node
	edges       map[edgeKey]model.Edge
	outgoing    map[string]int
}

type edgeKey struct {
	source string
	handle string
}

// Compile validates the graph and builds its runtime form. Graphs with fatal
// validation errors never compile.
func Compile(g *model.FlowGraph) (*Flow, error) {
	errs := Validate(g)
	if HasFatal(errs) {
		return nil, fmt.Errorf("graph %s version %d is invalid: %v", g.Id, g.Version, errs)
	}
	f := &Flow{
		Id:       g.Id,
		Version:  g.Version,
		nodes:    make(map[string]model.Node, len(g.Nodes)),
		edges:    make(map[edgeKey]model.Edge, len(g.Edges)),
		outgoing: make(map[string]int),
	}
	for _, n := range g.Nodes {
		f.nodes[n.Id] = n
		if n.Type == model.NODE_TYPE_START {
			f.StartNodeId = n.Id
		}
	}
	for _, e := range g.Edges {
		f.edges[edgeKey{source: e.Source, handle: e.Handle}] = e
		f.outgoing[e.Source]++
	}
	return f, nil
}

func (f *Flow) Node(id string) (model.Node, bool) {
	n, ok := f.nodes[id]
	return n, ok
}

// HasEdge reports whether an outgoing edge with the given handle exists.
func (f *Flow) HasEdge(source string, handle string) bool {
	_, ok := f.edges[edgeKey{source: source, handle: handle}]
	return ok
}

// Next resolves the node an execution moves to after nodeId. With a handle it
// requires the matching labelled edge; without one it requires a single
// unlabeled outgoing edge. No outgoing edge means the flow is done. An edge
// that exists but does not match the handle is a configuration error, never a
// guess.
func (f *Flow) Next(nodeId string, handle string) (string, bool, error) {
	if f.outgoing[nodeId] == 0 {
		return "", false, nil
	}
	e, ok := f.edges[edgeKey{source: nodeId, handle: handle}]
	if !ok {
		if handle == "" {
			return "", false, fmt.Errorf("node %s has labelled outgoing edges only, can not pick a default", nodeId)
		}
		return "", false, fmt.Errorf("node %s has no outgoing edge with handle %q", nodeId, handle)
	}
	return e.Target, true, nil
}
