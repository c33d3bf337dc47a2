package redis

import (
	"context"
	"errors"

	rd "github.com/go-redis/redis/v9"
	"github.com/jornadahq/jornada/logger"
	"github.com/jornadahq/jornada/model"
	"github.com/jornadahq/jornada/persistence"
	"github.com/jornadahq/jornada/util"
	"go.uber.org/zap"
)

const EXECUTION_KEY string = "EXECUTION"
const GLOBAL_KEY string = "GLOBAL"

var _ persistence.Storage = new(redisStorage)

// redisStorage keeps each execution in a hash with a duplicated state field
// so the resume claim can compare-and-set the state without decoding the
// context document.
type redisStorage struct {
	baseDao
	encDec      util.EncoderDecoder[model.ExecutionContext]
	valueEncDec util.EncoderDecoder[model.Value]
}

func NewStorage(conf Config) *redisStorage {
	return &redisStorage{
		baseDao:     *newBaseDao(conf),
		encDec:      util.NewJsonEncoderDecoder[model.ExecutionContext](),
		valueEncDec: util.NewJsonEncoderDecoder[model.Value](),
	}
}

// NewStorageFromClient is used by tests to run against miniredis.
func NewStorageFromClient(client rd.UniversalClient, namespace string) *redisStorage {
	return &redisStorage{
		baseDao:     *newBaseDaoFromClient(client, namespace),
		encDec:      util.NewJsonEncoderDecoder[model.ExecutionContext](),
		valueEncDec: util.NewJsonEncoderDecoder[model.Value](),
	}
}

func (rs *redisStorage) SaveExecution(execCtx *model.ExecutionContext) error {
	key := rs.getNamespaceKey(EXECUTION_KEY, execCtx.Id)
	ctx := context.Background()
	data, err := rs.encDec.Encode(*execCtx)
	if err != nil {
		return err
	}
	err = rs.redisClient.HSet(ctx, key, "data", string(data), "state", string(execCtx.State)).Err()
	if err != nil {
		logger.Error("error in saving execution", zap.String("executionId", execCtx.Id), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rs *redisStorage) GetExecution(executionId string) (*model.ExecutionContext, error) {
	key := rs.getNamespaceKey(EXECUTION_KEY, executionId)
	ctx := context.Background()
	fields, err := rs.redisClient.HGetAll(ctx, key).Result()
	if err != nil {
		logger.Error("error in getting execution", zap.String("executionId", executionId), zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	data, ok := fields["data"]
	if !ok {
		return nil, persistence.NotFoundError{Kind: "execution", Key: executionId}
	}
	execCtx, err := rs.encDec.Decode([]byte(data))
	if err != nil {
		return nil, err
	}
	if state, ok := fields["state"]; ok {
		execCtx.State = model.ExecutionState(state)
	}
	return execCtx, nil
}

// claimScript transitions SUSPENDED -> RUNNING for exactly one caller.
var claimScript = rd.NewScript(`
local state = redis.call("HGET", KEYS[1], "state")
if not state then
	return -1
end
if state ~= "SUSPENDED" then
	return 0
end
redis.call("HSET", KEYS[1], "state", "RUNNING")
return 1
`)

func (rs *redisStorage) ClaimResume(executionId string) (bool, error) {
	key := rs.getNamespaceKey(EXECUTION_KEY, executionId)
	ctx := context.Background()
	res, err := claimScript.Run(ctx, rs.redisClient, []string{key}).Int()
	if err != nil {
		return false, persistence.StorageLayerError{Message: err.Error()}
	}
	if res == -1 {
		return false, persistence.NotFoundError{Kind: "execution", Key: executionId}
	}
	return res == 1, nil
}

func (rs *redisStorage) SetGlobalVariable(flowId string, name string, value model.Value) error {
	key := rs.getNamespaceKey(GLOBAL_KEY, flowId)
	ctx := context.Background()
	data, err := rs.valueEncDec.Encode(value)
	if err != nil {
		return err
	}
	if err := rs.redisClient.HSet(ctx, key, name, string(data)).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rs *redisStorage) GetGlobalVariable(flowId string, name string) (model.Value, bool, error) {
	key := rs.getNamespaceKey(GLOBAL_KEY, flowId)
	ctx := context.Background()
	data, err := rs.redisClient.HGet(ctx, key, name).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return model.Value{}, false, nil
		}
		return model.Value{}, false, persistence.StorageLayerError{Message: err.Error()}
	}
	value, err := rs.valueEncDec.Decode([]byte(data))
	if err != nil {
		return model.Value{}, false, err
	}
	return *value, true, nil
}
