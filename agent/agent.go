// Package agent wires the service together: storage, engine, timer sweeper
// and the http surface, started and stopped as one unit.
package agent

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/jornadahq/jornada/analytics"
	"github.com/jornadahq/jornada/capability"
	"github.com/jornadahq/jornada/config"
	"github.com/jornadahq/jornada/engine"
	"github.com/jornadahq/jornada/executor"
	"github.com/jornadahq/jornada/logger"
	"github.com/jornadahq/jornada/metadata"
	"github.com/jornadahq/jornada/persistence"
	"github.com/jornadahq/jornada/persistence/memory"
	"github.com/jornadahq/jornada/persistence/redis"
	"github.com/jornadahq/jornada/rest"
	"github.com/jornadahq/jornada/service"
)

type Agent struct {
	Config           config.Config
	storage          persistence.Storage
	metadataStorage  persistence.MetadataStorage
	metadataService  metadata.MetadataService
	engine           *engine.Engine
	timerSweeper     *engine.TimerSweeper
	executionService *service.ExecutionService
	httpServer       *rest.Server
	shutdown         bool
	shutdownLock     sync.Mutex
	wg               sync.WaitGroup
}

func New(conf config.Config) (*Agent, error) {
	a := &Agent{
		Config: conf,
	}
	setup := []func() error{
		a.setupStorage,
		a.setupEngine,
		a.setupHttpServer,
	}
	for _, fn := range setup {
		if err := fn(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Agent) setupStorage() error {
	switch a.Config.StorageType {
	case config.STORAGE_TYPE_REDIS:
		a.storage = redis.NewStorage(a.Config.RedisConfig)
		a.metadataStorage = redis.NewMetadataStorage(a.Config.RedisConfig)
	case config.STORAGE_TYPE_INMEM:
		a.storage = memory.NewStorage()
		a.metadataStorage = memory.NewMetadataStorage()
	default:
		return fmt.Errorf("unknown storage type %s", a.Config.StorageType)
	}
	return nil
}

func (a *Agent) setupEngine() error {
	a.metadataService = metadata.NewMetadataService(a.metadataStorage)
	registry := executor.NewRegistry(
		capability.LogMessenger{},
		capability.NewInMemoryContactStore(),
		capability.LogHandoff{},
		capability.NewHTTPCaller(a.Config.HttpRetryCount, a.Config.HttpRetryWait),
		a.storage,
	)
	a.engine = engine.NewEngine(a.metadataService, a.storage, registry)
	a.timerSweeper = engine.NewTimerSweeper(a.engine, a.Config.TimerTickInterval,
		a.Config.TimerPoolSize, a.Config.WorkerCapacity, &a.wg)
	a.executionService = service.NewExecutionService(a.engine)
	return nil
}

func (a *Agent) setupHttpServer() error {
	var err error
	a.httpServer, err = rest.NewServer(a.Config.HttpPort, a.metadataService, a.executionService)
	return err
}

func (a *Agent) Start() error {
	if err := analytics.InitDataCollector(a.Config.AnalyticsConfig); err != nil {
		return err
	}
	a.timerSweeper.Start()
	go func() {
		if err := a.httpServer.Start(); err != nil && err != http.ErrServerClosed {
			_ = a.Shutdown()
			panic(err)
		}
	}()
	return nil
}

func (a *Agent) Shutdown() error {
	logger.Info("shutting down server")
	a.shutdownLock.Lock()
	defer a.shutdownLock.Unlock()
	if a.shutdown {
		return nil
	}
	a.shutdown = true

	shutdown := []func() error{
		a.httpServer.Stop,
		func() error {
			a.timerSweeper.Stop()
			return nil
		},
	}
	for _, fn := range shutdown {
		if err := fn(); err != nil {
			return err
		}
	}
	a.wg.Wait()
	return nil
}
