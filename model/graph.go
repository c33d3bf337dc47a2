package model

import (
	"encoding/json"
	"fmt"
)

type NodeType string

const NODE_TYPE_MESSAGE NodeType = "MESSAGE"
const NODE_TYPE_CONDITION NodeType = "CONDITION"
const NODE_TYPE_INPUT NodeType = "INPUT"
const NODE_TYPE_EMAIL_INPUT NodeType = "EMAIL_INPUT"
const NODE_TYPE_NUMBER_INPUT NodeType = "NUMBER_INPUT"
const NODE_TYPE_PHONE_INPUT NodeType = "PHONE_INPUT"
const NODE_TYPE_DATE_INPUT NodeType = "DATE_INPUT"
const NODE_TYPE_FILE_UPLOAD NodeType = "FILE_UPLOAD"
const NODE_TYPE_SET_VARIABLE NodeType = "SET_VARIABLE"
const NODE_TYPE_HTTP_REQUEST NodeType = "HTTP_REQUEST"
const NODE_TYPE_DELAY NodeType = "DELAY"
const NODE_TYPE_WAIT NodeType = "WAIT"
const NODE_TYPE_AB_TEST NodeType = "AB_TEST"
const NODE_TYPE_JUMP NodeType = "JUMP"
const NODE_TYPE_HANDOFF NodeType = "HANDOFF"
const NODE_TYPE_TERMINAL NodeType = "TERMINAL"
const NODE_TYPE_SCRIPT NodeType = "SCRIPT"
const NODE_TYPE_REDIRECT NodeType = "REDIRECT"
const NODE_TYPE_IMAGE NodeType = "IMAGE"
const NODE_TYPE_VIDEO NodeType = "VIDEO"
const NODE_TYPE_AUDIO NodeType = "AUDIO"
const NODE_TYPE_EMBED NodeType = "EMBED"
const NODE_TYPE_START NodeType = "START"

// Edge handles used by branching node types.
const HANDLE_TRUE string = "true"
const HANDLE_FALSE string = "false"
const HANDLE_VARIANT_A string = "variantA"
const HANDLE_VARIANT_B string = "variantB"

// JUMP_TARGET_END is the sentinel jump target that completes the execution.
const JUMP_TARGET_END string = "END"

// FlowGraph is the persisted, versioned flow document. An execution binds to
// one version for its whole lifetime; edits always produce a new version.
type FlowGraph struct {
	Id      string `json:"id"`
	Version int    `json:"version"`
	Name    string `json:"name,omitempty"`
	Active  bool   `json:"active"`
	Nodes   []Node `json:"nodes"`
	Edges   []Edge `json:"edges"`
}

type Node struct {
	Id     string     `json:"id"`
	Type   NodeType   `json:"type"`
	Config NodeConfig `json:"config,omitempty"`
}

// Edge order matters: when several unlabeled edges leave a node the graph is
// ambiguous and rejected at validation, not resolved by position.
type Edge struct {
	Id     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Handle string `json:"handle,omitempty"`
	Label  string `json:"label,omitempty"`
}

type nodeShell struct {
	Id     string          `json:"id"`
	Type   NodeType        `json:"type"`
	Config json.RawMessage `json:"config,omitempty"`
}

func (n *Node) UnmarshalJSON(data []byte) error {
	var shell nodeShell
	if err := json.Unmarshal(data, &shell); err != nil {
		return err
	}
	n.Id = shell.Id
	n.Type = shell.Type
	config, err := newNodeConfig(shell.Type)
	if err != nil {
		return fmt.Errorf("node %s: %w", shell.Id, err)
	}
	if config == nil {
		return nil
	}
	if len(shell.Config) > 0 {
		if err := json.Unmarshal(shell.Config, config); err != nil {
			return fmt.Errorf("node %s: invalid %s config: %w", shell.Id, shell.Type, err)
		}
	}
	n.Config = config
	return nil
}

// newNodeConfig maps a node type to its concrete config variant. A nil config
// means the type carries no configuration.
func newNodeConfig(nodeType NodeType) (NodeConfig, error) {
	switch nodeType {
	case NODE_TYPE_MESSAGE:
		return &MessageConfig{}, nil
	case NODE_TYPE_CONDITION:
		return &ConditionConfig{}, nil
	case NODE_TYPE_INPUT, NODE_TYPE_EMAIL_INPUT, NODE_TYPE_NUMBER_INPUT,
		NODE_TYPE_PHONE_INPUT, NODE_TYPE_DATE_INPUT, NODE_TYPE_FILE_UPLOAD:
		return &InputConfig{}, nil
	case NODE_TYPE_SET_VARIABLE:
		return &SetVariableConfig{}, nil
	case NODE_TYPE_HTTP_REQUEST:
		return &HTTPRequestConfig{}, nil
	case NODE_TYPE_DELAY:
		return &DelayConfig{}, nil
	case NODE_TYPE_WAIT:
		return &WaitConfig{}, nil
	case NODE_TYPE_AB_TEST:
		return &ABTestConfig{}, nil
	case NODE_TYPE_JUMP:
		return &JumpConfig{}, nil
	case NODE_TYPE_HANDOFF:
		return &HandoffConfig{}, nil
	case NODE_TYPE_TERMINAL:
		return &TerminalConfig{}, nil
	case NODE_TYPE_SCRIPT:
		return &ScriptConfig{}, nil
	case NODE_TYPE_REDIRECT, NODE_TYPE_IMAGE, NODE_TYPE_VIDEO,
		NODE_TYPE_AUDIO, NODE_TYPE_EMBED:
		return &MediaConfig{}, nil
	case NODE_TYPE_START:
		return nil, nil
	}
	return nil, fmt.Errorf("unknown node type %s", nodeType)
}
