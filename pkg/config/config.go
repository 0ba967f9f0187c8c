package config

import (
	"time"

	"github.com/vnykmshr/batchflow/pkg/common/validation"
	"github.com/vnykmshr/batchflow/pkg/logger"
)

// Defaults used when neither file, environment nor flags set a value.
const (
	DefaultName      = "batchflow"
	DefaultWorkers   = 0
	DefaultQueueSize = 0
	DefaultTimeout   = 60 * time.Second
)

// Config is the root configuration of a batchflow process.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Logging  logger.Config  `yaml:"logging" mapstructure:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics" mapstructure:"metrics"`
}

// PipelineConfig controls how a pipeline is executed.
type PipelineConfig struct {
	// Name labels logs, metrics and traces.
	Name string `yaml:"name" mapstructure:"name" validate:"required"`
	// Workers is the pool size; 0 runs sequentially on the caller.
	Workers int `yaml:"workers" mapstructure:"workers" validate:"gte=0"`
	// QueueSize is the pool queue capacity; 0 and -1 mean hand-off, and 0 with
	// workers set uses one slot per worker.
	QueueSize int `yaml:"queue_size" mapstructure:"queue_size" validate:"gte=-1"`
	// Timeout bounds a pooled execution.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
}

// MetricsConfig controls Prometheus instrumentation.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
	Namespace string `yaml:"namespace" mapstructure:"namespace"`
}

// Pooled reports whether the pipeline should run on a worker pool.
func (c PipelineConfig) Pooled() bool {
	return c.Workers > 0
}

// ApplyDefaults fills zero values that have a non-zero default.
func (c *Config) ApplyDefaults() {
	if c.Pipeline.Name == "" {
		c.Pipeline.Name = DefaultName
	}
	if c.Pipeline.Timeout == 0 {
		c.Pipeline.Timeout = DefaultTimeout
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultName
	}
	c.Logging.ApplyDefaults()
}

// Validate checks struct constraints and the logging section.
func (c *Config) Validate() error {
	if err := validation.Struct("config", c); err != nil {
		return err
	}
	return c.Logging.Validate()
}
