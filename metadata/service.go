// Package metadata owns flow definitions: saving new graph versions behind
// the validation gate and serving compiled flows to the engine.
package metadata

import (
	"fmt"
	"time"

	"github.com/jornadahq/jornada/flow"
	"github.com/jornadahq/jornada/model"
	"github.com/jornadahq/jornada/persistence"
	c "github.com/patrickmn/go-cache"
)

type MetadataService interface {
	// SaveFlow validates and persists a new version of the graph. A graph
	// with fatal validation errors is rejected and nothing is stored;
	// warnings are returned alongside the saved version.
	SaveFlow(g *model.FlowGraph) ([]flow.ValidationError, error)
	GetFlow(flowId string, version int) (*flow.Flow, error)
	GetLatestFlow(flowId string) (*flow.Flow, error)
	GetGraph(flowId string, version int) (*model.FlowGraph, error)
	GetLatestGraph(flowId string) (*model.FlowGraph, error)
}

type metadataService struct {
	storage persistence.MetadataStorage
	// compiled flows are immutable per version, so the cache never needs
	// invalidation
	compiled *c.Cache
}

func NewMetadataService(storage persistence.MetadataStorage) MetadataService {
	return &metadataService{
		storage:  storage,
		compiled: c.New(c.NoExpiration, 10*time.Minute),
	}
}

func (s *metadataService) SaveFlow(g *model.FlowGraph) ([]flow.ValidationError, error) {
	errs := flow.Validate(g)
	if flow.HasFatal(errs) {
		return errs, fmt.Errorf("flow %s is invalid", g.Id)
	}
	if err := s.storage.SaveFlowGraph(g); err != nil {
		return errs, err
	}
	return errs, nil
}

func (s *metadataService) GetFlow(flowId string, version int) (*flow.Flow, error) {
	key := fmt.Sprintf("%s:%d", flowId, version)
	if cached, found := s.compiled.Get(key); found {
		return cached.(*flow.Flow), nil
	}
	g, err := s.storage.GetFlowGraph(flowId, version)
	if err != nil {
		return nil, err
	}
	fl, err := flow.Compile(g)
	if err != nil {
		return nil, err
	}
	s.compiled.Set(key, fl, c.NoExpiration)
	return fl, nil
}

func (s *metadataService) GetLatestFlow(flowId string) (*flow.Flow, error) {
	g, err := s.storage.GetLatestFlowGraph(flowId)
	if err != nil {
		return nil, err
	}
	return s.GetFlow(flowId, g.Version)
}

func (s *metadataService) GetGraph(flowId string, version int) (*model.FlowGraph, error) {
	return s.storage.GetFlowGraph(flowId, version)
}

func (s *metadataService) GetLatestGraph(flowId string) (*model.FlowGraph, error) {
	return s.storage.GetLatestFlowGraph(flowId)
}
