package metadata

import (
	"testing"

	"github.com/jornadahq/jornada/flow"
	"github.com/jornadahq/jornada/model"
	"github.com/jornadahq/jornada/persistence/memory"
	"github.com/stretchr/testify/require"
)

func validGraph() *model.FlowGraph {
	return &model.FlowGraph{
		Id: "welcome", Active: true,
		Nodes: []model.Node{
			{Id: "start", Type: model.NODE_TYPE_START},
			{Id: "greet", Type: model.NODE_TYPE_MESSAGE,
				Config: &model.MessageConfig{Content: "hi"}},
		},
		Edges: []model.Edge{{Id: "e1", Source: "start", Target: "greet"}},
	}
}

func TestSaveFlowValidationGate(t *testing.T) {
	svc := NewMetadataService(memory.NewMetadataStorage())

	errs, err := svc.SaveFlow(validGraph())
	require.NoError(t, err)
	require.False(t, flow.HasFatal(errs))

	// fatal issues block the save entirely
	bad := validGraph()
	bad.Edges = append(bad.Edges, model.Edge{Id: "e2", Source: "greet", Target: "nowhere"})
	_, err = svc.SaveFlow(bad)
	require.Error(t, err)

	g, err := svc.GetLatestGraph("welcome")
	require.NoError(t, err)
	require.Equal(t, 1, g.Version)
}

func TestGetFlowCompilesAndCaches(t *testing.T) {
	svc := NewMetadataService(memory.NewMetadataStorage())
	_, err := svc.SaveFlow(validGraph())
	require.NoError(t, err)

	first, err := svc.GetFlow("welcome", 1)
	require.NoError(t, err)
	require.Equal(t, "start", first.StartNodeId)

	again, err := svc.GetFlow("welcome", 1)
	require.NoError(t, err)
	require.Same(t, first, again)

	latest, err := svc.GetLatestFlow("welcome")
	require.NoError(t, err)
	require.Equal(t, first.Version, latest.Version)
}

func TestGetFlowUnknown(t *testing.T) {
	svc := NewMetadataService(memory.NewMetadataStorage())
	_, err := svc.GetLatestFlow("missing")
	require.Error(t, err)
}
