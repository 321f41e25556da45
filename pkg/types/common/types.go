// Package common holds shared transport-level types used by the messaging
// layer.
package common

import "time"

// ProducerMessage is a broker-agnostic outbound message.
type ProducerMessage struct {
	Topic     string
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
	Partition int
}

// TopicConfig describes a topic to be created on the broker.
type TopicConfig struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	RetentionMs       int64
	CleanupPolicy     string
	MaxMessageBytes   int
	Configs           map[string]string
}
