package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jornadahq/jornada/logger"
	"github.com/jornadahq/jornada/model"
	"github.com/jornadahq/jornada/util"
	"github.com/spaolacci/murmur3"
	"go.uber.org/zap"
)

// TimerSweeper polls the timer queue and hands due executions to a worker
// pool, so slow resumes never block the poll loop.
type TimerSweeper struct {
	engine     *Engine
	tickWorker *util.TickWorker
	workers    []*util.Worker
	wg         *sync.WaitGroup
}

func NewTimerSweeper(engine *Engine, tickInterval time.Duration, poolSize int, capacity int, wg *sync.WaitGroup) *TimerSweeper {
	ts := &TimerSweeper{
		engine:  engine,
		wg:      wg,
		workers: make([]*util.Worker, poolSize),
	}
	for i := 0; i < poolSize; i++ {
		ts.workers[i] = util.NewWorker(fmt.Sprintf("timer-worker-%d", i), wg, ts.fireTimer, capacity)
	}
	ts.tickWorker = util.NewTickWorker("timer-sweeper", tickInterval, ts.sweep, wg)
	return ts
}

func (ts *TimerSweeper) Start() {
	for _, w := range ts.workers {
		w.Start()
	}
	ts.tickWorker.Start()
}

func (ts *TimerSweeper) Stop() {
	ts.tickWorker.Stop()
	for _, w := range ts.workers {
		w.Stop()
	}
}

// sweep pops every due timer and fans the executions out over the pool.
// Sharding by execution id keeps resumes for one execution on one worker.
func (ts *TimerSweeper) sweep() {
	executionIds, err := ts.engine.storage.PollTimers(ts.engine.now())
	if err != nil {
		logger.Error("error polling due timers", zap.Error(err))
		return
	}
	for _, id := range executionIds {
		ts.workers[shard(id, len(ts.workers))].Sender() <- id
	}
}

func (ts *TimerSweeper) fireTimer(task util.Task) error {
	executionId := task.(string)
	event := model.InboundEvent{
		Type:        model.EVENT_TIMER_FIRED,
		ExecutionId: executionId,
	}
	return ts.engine.DeliverEvent(context.Background(), event)
}

func shard(id string, buckets int) int {
	return int(murmur3.Sum32([]byte(id)) % uint32(buckets))
}
