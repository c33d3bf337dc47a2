package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jornadahq/jornada/agent"
	"github.com/jornadahq/jornada/analytics"
	"github.com/jornadahq/jornada/config"
	"github.com/jornadahq/jornada/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type cfg struct {
	config.Config
}
type cli struct {
	cfg cfg
}

func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().String("config-file", "", "Path to config file.")
	cmd.Flags().String("redis-addr", "localhost:6379", "comma separated list of redis host:port")
	cmd.Flags().String("namespace", "jornada", "namespace used in storage keys")
	cmd.Flags().Int("http-port", 8080, "http port for rest endpoints")
	cmd.Flags().String("storage-impl", "redis", "implementation of underline storage (redis|memory)")
	cmd.Flags().Duration("timer-tick-interval", 1*time.Second, "poll interval of the timer sweeper")
	cmd.Flags().Int("timer-pool-size", 4, "workers resuming timer waits")
	cmd.Flags().Int("worker-capacity", 512, "task buffer per resume worker")
	cmd.Flags().Int("http-retry-count", 2, "retries for http request steps")
	cmd.Flags().Duration("http-retry-wait", 200*time.Millisecond, "wait between http step retries")
	cmd.Flags().String("log-encoding", "json", "log encoding (json|console)")
	cmd.Flags().String("log-level", "info", "log level")
	cmd.Flags().String("analytics-collector", "noop", "execution record collector (noop|logfile)")
	cmd.Flags().String("analytics-file", "executions.log", "file for the logfile collector")
	return viper.BindPFlags(cmd.Flags())
}

func (c *cli) setupConfig(cmd *cobra.Command, args []string) error {
	configFile, err := cmd.Flags().GetString("config-file")
	if err != nil {
		return err
	}
	viper.SetConfigFile(configFile)

	if err = viper.ReadInConfig(); err != nil {
		// it's ok if config file doesn't exist
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	c.cfg.RedisConfig.Addrs = strings.Split(viper.GetString("redis-addr"), ",")
	c.cfg.RedisConfig.Namespace = viper.GetString("namespace")
	c.cfg.HttpPort = viper.GetInt("http-port")
	c.cfg.StorageType = config.StorageType(viper.GetString("storage-impl"))
	c.cfg.TimerTickInterval = viper.GetDuration("timer-tick-interval")
	c.cfg.TimerPoolSize = viper.GetInt("timer-pool-size")
	c.cfg.WorkerCapacity = viper.GetInt("worker-capacity")
	c.cfg.HttpRetryCount = viper.GetInt("http-retry-count")
	c.cfg.HttpRetryWait = viper.GetDuration("http-retry-wait")
	c.cfg.LogEncoding = viper.GetString("log-encoding")
	c.cfg.LogLevel = viper.GetString("log-level")
	c.cfg.AnalyticsConfig = analytics.DataCollectorConfig{
		CollectorType: analytics.NOOP_DATA_COLLECTOR,
		FileName:      viper.GetString("analytics-file"),
	}
	if viper.GetString("analytics-collector") == "logfile" {
		c.cfg.AnalyticsConfig.CollectorType = analytics.LOG_FILE_DATA_COLLECTOR
	}
	return nil
}

func (c *cli) run(cmd *cobra.Command, args []string) error {
	if err := logger.Init(c.cfg.LogEncoding, c.cfg.LogLevel); err != nil {
		return err
	}
	defer logger.Sync()
	a, err := agent.New(c.cfg.Config)
	if err != nil {
		return err
	}
	if err := a.Start(); err != nil {
		return err
	}
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	return a.Shutdown()
}

func main() {
	cli := &cli{}

	cmd := &cobra.Command{
		Use:     "jornada",
		PreRunE: cli.setupConfig,
		RunE:    cli.run,
	}

	if err := setupFlags(cmd); err != nil {
		log.Fatal(err)
	}

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
