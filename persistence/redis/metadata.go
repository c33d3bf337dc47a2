package redis

import (
	"context"
	"errors"
	"strconv"

	rd "github.com/go-redis/redis/v9"
	"github.com/jornadahq/jornada/model"
	"github.com/jornadahq/jornada/persistence"
	"github.com/jornadahq/jornada/util"
)

const FLOW_GRAPH_KEY string = "FLOWGRAPH"

var _ persistence.MetadataStorage = new(redisMetadataStorage)

// redisMetadataStorage keeps every graph version as a hash field keyed by
// version number, plus a "latest" pointer. Versions are never rewritten.
type redisMetadataStorage struct {
	baseDao
	encDec util.EncoderDecoder[model.FlowGraph]
}

func NewMetadataStorage(conf Config) *redisMetadataStorage {
	return &redisMetadataStorage{
		baseDao: *newBaseDao(conf),
		encDec:  util.NewJsonEncoderDecoder[model.FlowGraph](),
	}
}

func NewMetadataStorageFromClient(client rd.UniversalClient, namespace string) *redisMetadataStorage {
	return &redisMetadataStorage{
		baseDao: *newBaseDaoFromClient(client, namespace),
		encDec:  util.NewJsonEncoderDecoder[model.FlowGraph](),
	}
}

func (rm *redisMetadataStorage) SaveFlowGraph(g *model.FlowGraph) error {
	key := rm.getNamespaceKey(FLOW_GRAPH_KEY, g.Id)
	ctx := context.Background()
	version, err := rm.redisClient.HIncrBy(ctx, key, "latest", 1).Result()
	if err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	g.Version = int(version)
	data, err := rm.encDec.Encode(*g)
	if err != nil {
		return err
	}
	if err := rm.redisClient.HSet(ctx, key, strconv.Itoa(g.Version), string(data)).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rm *redisMetadataStorage) GetFlowGraph(flowId string, version int) (*model.FlowGraph, error) {
	key := rm.getNamespaceKey(FLOW_GRAPH_KEY, flowId)
	ctx := context.Background()
	data, err := rm.redisClient.HGet(ctx, key, strconv.Itoa(version)).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, persistence.NotFoundError{Kind: "flow", Key: flowId}
		}
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return rm.encDec.Decode([]byte(data))
}

func (rm *redisMetadataStorage) GetLatestFlowGraph(flowId string) (*model.FlowGraph, error) {
	key := rm.getNamespaceKey(FLOW_GRAPH_KEY, flowId)
	ctx := context.Background()
	latest, err := rm.redisClient.HGet(ctx, key, "latest").Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, persistence.NotFoundError{Kind: "flow", Key: flowId}
		}
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	version, err := strconv.Atoi(latest)
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return rm.GetFlowGraph(flowId, version)
}
