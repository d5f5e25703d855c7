// Package upstream adapts the recovery core to the partitioned log it
// recovers from. A partition is named by an opaque string id; the upstream
// log is responsible for mapping that id onto its own partition numbering.
package upstream

import "context"

// Message is one record read from the upstream log.
type Message struct {
	Offset    int64
	Key       []byte
	Value     []byte
	TimestampMs int64
}

// MessageStream is a pull-based cursor over a bounded offset range. Next
// returns ok=false once the stream is exhausted; the recovery task lifecycle
// relies on this rather than any end-of-partition signal from the log
// client, so it can stop exactly at a clamped end offset.
type MessageStream interface {
	Next(ctx context.Context) (msg *Message, ok bool, err error)
	Close() error
}

// Log is the upstream log adapter contract: the subset of a Kafka-like log
// the recovery core needs to discover a partition's retained range and read
// a bounded slice of it.
type Log interface {
	// EarliestOffset returns the oldest offset the log currently retains for
	// partition.
	EarliestOffset(ctx context.Context, partition string) (int64, error)

	// LatestOffset returns the offset one past the newest record the log
	// currently retains for partition (the high-water mark).
	LatestOffset(ctx context.Context, partition string) (int64, error)

	// OpenConsumer opens a non-group, direct-assignment consumer on
	// partition starting at start. The stream has no end offset of its own;
	// the caller bounds it.
	OpenConsumer(ctx context.Context, partition string, start int64) (MessageStream, error)
}
