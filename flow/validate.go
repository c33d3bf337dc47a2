package flow

import (
	"fmt"

	"github.com/jornadahq/jornada/model"
)

type Severity string

const SEVERITY_FATAL Severity = "FATAL"
const SEVERITY_WARNING Severity = "WARNING"

type ValidationError struct {
	Severity Severity `json:"severity"`
	NodeId   string   `json:"nodeId,omitempty"`
	EdgeId   string   `json:"edgeId,omitempty"`
	Message  string   `json:"message"`
}

func (v ValidationError) Error() string {
	return v.Message
}

func fatal(nodeId string, edgeId string, format string, args ...any) ValidationError {
	return ValidationError{Severity: SEVERITY_FATAL, NodeId: nodeId, EdgeId: edgeId, Message: fmt.Sprintf(format, args...)}
}

func warning(nodeId string, format string, args ...any) ValidationError {
	return ValidationError{Severity: SEVERITY_WARNING, NodeId: nodeId, Message: fmt.Sprintf(format, args...)}
}

// HasFatal reports whether the validation result forbids activating the graph.
func HasFatal(errs []ValidationError) bool {
	for _, e := range errs {
		if e.Severity == SEVERITY_FATAL {
			return true
		}
	}
	return false
}

// Validate checks the structural invariants of a flow graph: node id
// uniqueness, edge endpoint integrity, unambiguous branching, a single start
// node and per-node config validity. Unreachable nodes are reported as
// warnings only.
func Validate(g *model.FlowGraph) []ValidationError {
	var errs []ValidationError

	nodes := make(map[string]model.Node, len(g.Nodes))
	for _, n := range g.Nodes {
		if _, ok := nodes[n.Id]; ok {
			errs = append(errs, fatal(n.Id, "", "node id %s is duplicate", n.Id))
			continue
		}
		nodes[n.Id] = n
	}

	var startCount int
	for _, n := range g.Nodes {
		if n.Type == model.NODE_TYPE_START {
			startCount++
			continue
		}
		if n.Config == nil {
			errs = append(errs, fatal(n.Id, "", "node %s of type %s has no config", n.Id, n.Type))
			continue
		}
		if err := n.Config.Validate(); err != nil {
			errs = append(errs, fatal(n.Id, "", "node %s: %v", n.Id, err))
		}
		if jump, ok := n.Config.(*model.JumpConfig); ok {
			if jump.TargetStepId != model.JUMP_TARGET_END {
				if _, exists := nodes[jump.TargetStepId]; !exists {
					errs = append(errs, fatal(n.Id, "", "jump node %s targets unknown node %s", n.Id, jump.TargetStepId))
				}
			}
		}
	}
	if startCount != 1 {
		errs = append(errs, fatal("", "", "graph should have exactly one start node, found %d", startCount))
	}

	type edgeKey struct {
		source string
		handle string
	}
	seen := make(map[edgeKey]string, len(g.Edges))
	for _, e := range g.Edges {
		if _, ok := nodes[e.Source]; !ok {
			errs = append(errs, fatal("", e.Id, "edge %s source %s does not exist", e.Id, e.Source))
		}
		if _, ok := nodes[e.Target]; !ok {
			errs = append(errs, fatal("", e.Id, "edge %s target %s does not exist", e.Id, e.Target))
		}
		key := edgeKey{source: e.Source, handle: e.Handle}
		if other, ok := seen[key]; ok {
			errs = append(errs, fatal("", e.Id, "edges %s and %s both leave %s with handle %q, branching is ambiguous", other, e.Id, e.Source, e.Handle))
			continue
		}
		seen[key] = e.Id
	}

	if startCount == 1 && !HasFatal(errs) {
		for _, n := range g.Nodes {
			if n.Type == model.NODE_TYPE_START {
				for id := range unreachable(n.Id, nodes, g.Edges) {
					errs = append(errs, warning(id, "node %s is not reachable from the start node", id))
				}
				break
			}
		}
	}
	return errs
}

func unreachable(start string, nodes map[string]model.Node, edges []model.Edge) map[string]struct{} {
	out := make(map[string][]string)
	for _, e := range edges {
		out[e.Source] = append(out[e.Source], e.Target)
	}
	// jump edges are implicit
	for id, n := range nodes {
		if jump, ok := n.Config.(*model.JumpConfig); ok && jump.TargetStepId != model.JUMP_TARGET_END {
			out[id] = append(out[id], jump.TargetStepId)
		}
	}
	visited := make(map[string]struct{}, len(nodes))
	stack := []string{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := visited[id]; ok {
			continue
		}
		visited[id] = struct{}{}
		stack = append(stack, out[id]...)
	}
	missing := make(map[string]struct{})
	for id := range nodes {
		if _, ok := visited[id]; !ok {
			missing[id] = struct{}{}
		}
	}
	return missing
}
