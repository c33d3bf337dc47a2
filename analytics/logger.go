package analytics

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogFileDataCollector struct {
	fileName string
	logger   *zap.Logger
}

func NewLogFileDataCollector(fileName string) (*LogFileDataCollector, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.StacktraceKey = ""
	fileEncoder := zapcore.NewJSONEncoder(encoderConfig)
	logFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	writer := zapcore.AddSync(logFile)
	core := zapcore.NewCore(fileEncoder, writer, zapcore.InfoLevel)
	return &LogFileDataCollector{
		fileName: fileName,
		logger:   zap.New(core),
	}, nil
}

func (lc *LogFileDataCollector) RecordExecutionCompleted(flowId string, executionId string, nodeId string) {
	lc.logger.Info("completed", zap.String("flowId", flowId), zap.String("executionId", executionId), zap.String("node", nodeId))
}

func (lc *LogFileDataCollector) RecordExecutionFailed(flowId string, executionId string, nodeId string, reason string) {
	lc.logger.Info("failed", zap.String("flowId", flowId), zap.String("executionId", executionId), zap.String("node", nodeId), zap.String("reason", reason))
}

func (lc *LogFileDataCollector) RecordExecutionTerminated(flowId string, executionId string, nodeId string, reason string) {
	lc.logger.Info("terminated", zap.String("flowId", flowId), zap.String("executionId", executionId), zap.String("node", nodeId), zap.String("reason", reason))
}
