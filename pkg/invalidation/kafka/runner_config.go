package kafka

import (
	"time"

	"github.com/mohammed-shakir/landuse-api/internal/core/config"
)

type Driver string

const (
	DriverNone  Driver = "none"
	DriverKafka Driver = "kafka"
)

type InvalidationConfig struct {
	Enabled bool
	Driver  Driver

	Brokers []string
	Topic   string
	GroupID string
	// Source identifies this instance; events it produced are not re-applied.
	Source string

	SessionTimeout   time.Duration
	Heartbeat        time.Duration
	RebalanceTimeout time.Duration
	InitialOldest    bool
}

func FromConfig(c config.InvalidationCfg, instanceID string) InvalidationConfig {
	driver := Driver(c.Driver)
	if driver == "" {
		driver = DriverNone
	}
	return InvalidationConfig{
		Enabled:          c.Enabled,
		Driver:           driver,
		Brokers:          c.BrokerList(),
		Topic:            c.Topic,
		GroupID:          c.GroupID,
		Source:           instanceID,
		SessionTimeout:   30 * time.Second,
		Heartbeat:        3 * time.Second,
		RebalanceTimeout: 30 * time.Second,
		InitialOldest:    false,
	}
}

// Active reports whether events should be produced and consumed.
func (c InvalidationConfig) Active() bool {
	return c.Enabled && c.Driver == DriverKafka
}
