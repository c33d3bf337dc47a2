package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	rd "github.com/go-redis/redis/v9"
	"github.com/jornadahq/jornada/logger"
	"github.com/jornadahq/jornada/model"
	"github.com/jornadahq/jornada/persistence"
	"go.uber.org/zap"
)

const INPUT_WAIT_KEY string = "WAIT:INPUT"
const WEBHOOK_WAIT_KEY string = "WAIT:WEBHOOK"
const TIMER_KEY string = "TIMERS"

// ParkInput writes through the entry for (kind, subject) and hands any
// evicted execution back to the caller. GETSET keeps read-old-write-new
// atomic under concurrent parks.
func (rs *redisStorage) ParkInput(kind model.InputKind, subjectKey string, executionId string) (string, error) {
	key := rs.getNamespaceKey(INPUT_WAIT_KEY, string(kind), subjectKey)
	ctx := context.Background()
	evicted, err := rs.redisClient.GetSet(ctx, key, executionId).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return "", nil
		}
		logger.Error("error parking input wait", zap.String("subject", subjectKey), zap.Error(err))
		return "", persistence.StorageLayerError{Message: err.Error()}
	}
	return evicted, nil
}

func (rs *redisStorage) ResolveInput(kind model.InputKind, subjectKey string) (string, bool, error) {
	key := rs.getNamespaceKey(INPUT_WAIT_KEY, string(kind), subjectKey)
	return rs.takeWaitKey(key)
}

func (rs *redisStorage) ParkWebhook(token string, executionId string) error {
	key := rs.getNamespaceKey(WEBHOOK_WAIT_KEY, token)
	ctx := context.Background()
	if err := rs.redisClient.Set(ctx, key, executionId, 0).Err(); err != nil {
		logger.Error("error parking webhook wait", zap.String("token", token), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rs *redisStorage) ResolveWebhook(token string) (string, bool, error) {
	key := rs.getNamespaceKey(WEBHOOK_WAIT_KEY, token)
	return rs.takeWaitKey(key)
}

// takeWaitKey removes the index entry and hands its execution to exactly one
// caller. GETDEL keeps the claim atomic under concurrent deliveries.
func (rs *redisStorage) takeWaitKey(key string) (string, bool, error) {
	ctx := context.Background()
	executionId, err := rs.redisClient.GetDel(ctx, key).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return "", false, nil
		}
		return "", false, persistence.StorageLayerError{Message: err.Error()}
	}
	return executionId, true, nil
}

func (rs *redisStorage) ParkTimer(executionId string, fireAt time.Time) error {
	key := rs.getNamespaceKey(TIMER_KEY)
	ctx := context.Background()
	member := rd.Z{
		Score:  float64(fireAt.UnixMilli()),
		Member: executionId,
	}
	if err := rs.redisClient.ZAdd(ctx, key, member).Err(); err != nil {
		logger.Error("error parking timer wait", zap.String("executionId", executionId), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rs *redisStorage) PollTimers(now time.Time) ([]string, error) {
	key := rs.getNamespaceKey(TIMER_KEY)
	ctx := context.Background()
	max := strconv.FormatInt(now.UnixMilli(), 10)
	pipe := rs.redisClient.Pipeline()
	opt := &rd.ZRangeBy{
		Min: "0",
		Max: max,
	}
	zr := pipe.ZRangeByScore(ctx, key, opt)
	pipe.ZRemRangeByScore(ctx, key, "0", max)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Error("error polling timers", zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	res, err := zr.Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return []string{}, nil
		}
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return res, nil
}

// clearWaitScript deletes a wait key only when it still points at the given
// execution, so a later wait by the same subject is never clobbered.
var clearWaitScript = rd.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (rs *redisStorage) ClearWait(execCtx *model.ExecutionContext) error {
	if execCtx.Waiting == nil {
		return nil
	}
	ctx := context.Background()
	var err error
	switch execCtx.Waiting.Kind {
	case model.WAIT_INPUT:
		key := rs.getNamespaceKey(INPUT_WAIT_KEY, string(execCtx.Waiting.InputKind), execCtx.Subject.Key())
		err = clearWaitScript.Run(ctx, rs.redisClient, []string{key}, execCtx.Id).Err()
	case model.WAIT_TIMER:
		key := rs.getNamespaceKey(TIMER_KEY)
		err = rs.redisClient.ZRem(ctx, key, execCtx.Id).Err()
	case model.WAIT_WEBHOOK:
		key := rs.getNamespaceKey(WEBHOOK_WAIT_KEY, execCtx.Waiting.CallbackToken)
		err = clearWaitScript.Run(ctx, rs.redisClient, []string{key}, execCtx.Id).Err()
	}
	if err != nil && !errors.Is(err, rd.Nil) {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}
