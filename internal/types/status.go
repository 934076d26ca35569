package types

// EngineStatus is the lifecycle state of the dispatch engine.
type EngineStatus string

const (
	EngineStatusStopped EngineStatus = "stopped"
	EngineStatusRunning EngineStatus = "running"
)

// EngineStats are the dispatch engine counters.
type EngineStats struct {
	Status     EngineStatus `json:"status" yaml:"status"`
	Strategies int          `json:"strategies" yaml:"strategies"`
	QueueLen   int          `json:"queue_len" yaml:"queue_len"`
	Received   uint64       `json:"received" yaml:"received"`
	Dropped    uint64       `json:"dropped" yaml:"dropped"`
	Throttled  uint64       `json:"throttled" yaml:"throttled"`
	Executed   uint64       `json:"executed" yaml:"executed"`
	Failed     uint64       `json:"failed" yaml:"failed"`
}
