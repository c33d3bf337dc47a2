package flow

import (
	"testing"

	"github.com/jornadahq/jornada/model"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	fl, err := Compile(validGraph())
	require.NoError(t, err)
	require.Equal(t, "start", fl.StartNodeId)

	g := validGraph()
	g.Edges = append(g.Edges, model.Edge{Id: "dup", Source: "greet", Target: "adult"})
	_, err = Compile(g)
	require.Error(t, err)
}

func TestNext(t *testing.T) {
	fl, err := Compile(validGraph())
	require.NoError(t, err)

	next, found, err := fl.Next("start", "")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "greet", next)

	next, found, err = fl.Next("check", model.HANDLE_TRUE)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "adult", next)

	// terminal node: no outgoing edge means done, not an error
	_, found, err = fl.Next("adult", "")
	require.NoError(t, err)
	require.False(t, found)

	// labelled edges only, a default pick would be a guess
	_, _, err = fl.Next("check", "")
	require.Error(t, err)

	// handle with no matching edge
	_, _, err = fl.Next("check", "maybe")
	require.Error(t, err)
}

func TestHasEdge(t *testing.T) {
	fl, err := Compile(validGraph())
	require.NoError(t, err)
	require.True(t, fl.HasEdge("check", model.HANDLE_TRUE))
	require.False(t, fl.HasEdge("check", "yes"))
}
