package memory

import (
	"sync"

	"github.com/jornadahq/jornada/model"
	"github.com/jornadahq/jornada/persistence"
	"github.com/jornadahq/jornada/util"
)

var _ persistence.MetadataStorage = new(MetadataStorage)

type MetadataStorage struct {
	mu     sync.Mutex
	graphs map[string]map[int][]byte
	latest map[string]int
	encDec util.EncoderDecoder[model.FlowGraph]
}

func NewMetadataStorage() *MetadataStorage {
	return &MetadataStorage{
		graphs: make(map[string]map[int][]byte),
		latest: make(map[string]int),
		encDec: util.NewJsonEncoderDecoder[model.FlowGraph](),
	}
}

func (s *MetadataStorage) SaveFlowGraph(g *model.FlowGraph) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	versions, ok := s.graphs[g.Id]
	if !ok {
		versions = make(map[int][]byte)
		s.graphs[g.Id] = versions
	}
	g.Version = s.latest[g.Id] + 1
	data, err := s.encDec.Encode(*g)
	if err != nil {
		return err
	}
	versions[g.Version] = data
	s.latest[g.Id] = g.Version
	return nil
}

func (s *MetadataStorage) GetFlowGraph(flowId string, version int) (*model.FlowGraph, error) {
	s.mu.Lock()
	data, ok := s.graphs[flowId][version]
	s.mu.Unlock()
	if !ok {
		return nil, persistence.NotFoundError{Kind: "flow", Key: flowId}
	}
	return s.encDec.Decode(data)
}

func (s *MetadataStorage) GetLatestFlowGraph(flowId string) (*model.FlowGraph, error) {
	s.mu.Lock()
	version, ok := s.latest[flowId]
	s.mu.Unlock()
	if !ok {
		return nil, persistence.NotFoundError{Kind: "flow", Key: flowId}
	}
	return s.GetFlowGraph(flowId, version)
}
