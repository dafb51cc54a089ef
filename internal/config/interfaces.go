package config

import (
	"time"

	"github.com/IBM/sarama"
)

type Server interface {
	Host() string
	Port() int
	Address() string
	ReadTimeout() time.Duration
	ShutdownTimeout() time.Duration
}

type Logger interface {
	Level() string
	AsJSON() bool
}

type Database interface {
	MigrationDirectory() string
	DSN() string
}

type Kafka interface {
	Brokers() []string
	RequestEventsTopic() string
	ProducerConfig() *sarama.Config
}

type JWT interface {
	Secret() []byte
	TokenTTL() time.Duration
}
