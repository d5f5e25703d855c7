package upstream

import (
	"context"
	"fmt"
	"sync"
)

// FakeLog is an in-memory, offset-addressable Log used by tests. Each
// partition is a contiguous slice of messages; offset N is messages[N] for
// N in [earliestRetained, len(messages)). Trim simulates retention by
// advancing earliestRetained without shrinking the backing slice.
type FakeLog struct {
	mu         sync.Mutex
	partitions map[string][]*Message
	earliest   map[string]int64
}

// NewFakeLog returns an empty FakeLog.
func NewFakeLog() *FakeLog {
	return &FakeLog{
		partitions: make(map[string][]*Message),
		earliest:   make(map[string]int64),
	}
}

// Append adds msg to the end of partition, assigning it the next offset.
// Returns the assigned offset.
func (f *FakeLog) Append(partition string, key, value []byte, timestampMs int64) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	offset := int64(len(f.partitions[partition]))
	f.partitions[partition] = append(f.partitions[partition], &Message{
		Offset:      offset,
		Key:         key,
		Value:       value,
		TimestampMs: timestampMs,
	})
	return offset
}

// Trim advances the earliest retained offset for partition, simulating
// upstream retention aging out old data. Messages below earliest are no
// longer visible to EarliestOffset/OpenConsumer.
func (f *FakeLog) Trim(partition string, earliest int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.earliest[partition] = earliest
}

func (f *FakeLog) EarliestOffset(ctx context.Context, partition string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.earliest[partition], nil
}

func (f *FakeLog) LatestOffset(ctx context.Context, partition string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.partitions[partition])), nil
}

func (f *FakeLog) OpenConsumer(ctx context.Context, partition string, start int64) (MessageStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if start < f.earliest[partition] {
		return nil, fmt.Errorf("upstream: start offset %d is below earliest retained %d for partition %s", start, f.earliest[partition], partition)
	}

	msgs := f.partitions[partition]
	return &fakeStream{log: f, partition: partition, next: start, total: int64(len(msgs))}, nil
}

type fakeStream struct {
	log       *FakeLog
	partition string
	next      int64
	total     int64
}

func (s *fakeStream) Next(ctx context.Context) (*Message, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.log.mu.Lock()
	defer s.log.mu.Unlock()

	msgs := s.log.partitions[s.partition]
	if s.next >= int64(len(msgs)) {
		return nil, false, nil
	}
	msg := msgs[s.next]
	s.next++
	return msg, true, nil
}

func (s *fakeStream) Close() error { return nil }
