// Package analytics records auditable execution lifecycle events so failed
// executions stay queryable and distinguishable from completed ones.
package analytics

type DataCollectorConfig struct {
	FileName      string
	CollectorType DataCollectorType
}

type DataCollectorType string

const LOG_FILE_DATA_COLLECTOR DataCollectorType = "LOG_FILE_DATA_COLLECTOR"
const NOOP_DATA_COLLECTOR DataCollectorType = "NOOP_DATA_COLLECTOR"

type ExecutionDataCollector interface {
	RecordExecutionCompleted(flowId string, executionId string, nodeId string)
	RecordExecutionFailed(flowId string, executionId string, nodeId string, reason string)
	RecordExecutionTerminated(flowId string, executionId string, nodeId string, reason string)
}

var executionCollector ExecutionDataCollector = noopCollector{}

func InitDataCollector(config DataCollectorConfig) error {
	switch config.CollectorType {
	case LOG_FILE_DATA_COLLECTOR:
		c, err := NewLogFileDataCollector(config.FileName)
		if err != nil {
			return err
		}
		executionCollector = c
	}
	return nil
}

func RecordExecutionCompleted(flowId string, executionId string, nodeId string) {
	executionCollector.RecordExecutionCompleted(flowId, executionId, nodeId)
}

func RecordExecutionFailed(flowId string, executionId string, nodeId string, reason string) {
	executionCollector.RecordExecutionFailed(flowId, executionId, nodeId, reason)
}

func RecordExecutionTerminated(flowId string, executionId string, nodeId string, reason string) {
	executionCollector.RecordExecutionTerminated(flowId, executionId, nodeId, reason)
}

type noopCollector struct{}

func (noopCollector) RecordExecutionCompleted(flowId string, executionId string, nodeId string) {}
func (noopCollector) RecordExecutionFailed(flowId string, executionId string, nodeId string, reason string) {
}
func (noopCollector) RecordExecutionTerminated(flowId string, executionId string, nodeId string, reason string) {
}
