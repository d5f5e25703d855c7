package upstream

import (
	"context"
	"fmt"
	"strconv"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/mansu/kaldb/pkg/kaldberr"
)

// KafkaLog implements Log over a franz-go client pair: kgo.Client for
// consumption, kadm.Client for offset listing.
type KafkaLog struct {
	topic            string
	bootstrapServers []string
	client           *kgo.Client
	admin            *kadm.Client
}

// NewKafkaLog dials bootstrapServers and returns a KafkaLog bound to topic.
func NewKafkaLog(bootstrapServers []string, topic string) (*KafkaLog, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(bootstrapServers...),
	)
	if err != nil {
		return nil, &kaldberr.UpstreamUnavailableError{Topic: topic, Err: err}
	}

	return &KafkaLog{
		topic:            topic,
		bootstrapServers: bootstrapServers,
		client:           client,
		admin:            kadm.NewClient(client),
	}, nil
}

// Close releases the underlying client.
func (l *KafkaLog) Close() { l.client.Close() }

func parsePartition(partition string) (int32, error) {
	n, err := strconv.ParseInt(partition, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("upstream: partition id %q is not a valid int32: %w", partition, err)
	}
	return int32(n), nil
}

func (l *KafkaLog) EarliestOffset(ctx context.Context, partition string) (int64, error) {
	p, err := parsePartition(partition)
	if err != nil {
		return 0, err
	}

	listed, err := l.admin.ListStartOffsets(ctx, l.topic)
	if err != nil {
		return 0, &kaldberr.UpstreamUnavailableError{Topic: l.topic, Partition: partition, Err: err}
	}
	offset, exists := listed.Lookup(l.topic, p)
	if !exists {
		return 0, &kaldberr.UpstreamUnavailableError{Topic: l.topic, Partition: partition, Err: fmt.Errorf("no start offset listed")}
	}
	if offset.Err != nil {
		return 0, &kaldberr.UpstreamUnavailableError{Topic: l.topic, Partition: partition, Err: offset.Err}
	}
	return offset.Offset, nil
}

func (l *KafkaLog) LatestOffset(ctx context.Context, partition string) (int64, error) {
	p, err := parsePartition(partition)
	if err != nil {
		return 0, err
	}

	listed, err := l.admin.ListEndOffsets(ctx, l.topic)
	if err != nil {
		return 0, &kaldberr.UpstreamUnavailableError{Topic: l.topic, Partition: partition, Err: err}
	}
	offset, exists := listed.Lookup(l.topic, p)
	if !exists {
		return 0, &kaldberr.UpstreamUnavailableError{Topic: l.topic, Partition: partition, Err: fmt.Errorf("no end offset listed")}
	}
	if offset.Err != nil {
		return 0, &kaldberr.UpstreamUnavailableError{Topic: l.topic, Partition: partition, Err: offset.Err}
	}
	return offset.Offset, nil
}

func (l *KafkaLog) OpenConsumer(ctx context.Context, partition string, start int64) (MessageStream, error) {
	p, err := parsePartition(partition)
	if err != nil {
		return nil, err
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(l.bootstrapServers...),
	)
	if err != nil {
		return nil, &kaldberr.UpstreamUnavailableError{Topic: l.topic, Partition: partition, Err: err}
	}

	client.AddConsumePartitions(map[string]map[int32]kgo.Offset{
		l.topic: {p: kgo.NewOffset().At(start)},
	})

	return &kafkaStream{client: client, topic: l.topic, partition: p}, nil
}

type kafkaStream struct {
	client    *kgo.Client
	topic     string
	partition int32
	buf       []*kgo.Record
}

func (s *kafkaStream) Next(ctx context.Context) (*Message, bool, error) {
	for len(s.buf) == 0 {
		fetches := s.client.PollFetches(ctx)
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		if errs := fetches.Errors(); len(errs) > 0 {
			return nil, false, &kaldberr.UpstreamUnavailableError{Topic: s.topic, Err: errs[0].Err}
		}
		fetches.EachRecord(func(r *kgo.Record) {
			s.buf = append(s.buf, r)
		})
		if len(s.buf) == 0 && fetches.Empty() {
			return nil, false, nil
		}
	}

	r := s.buf[0]
	s.buf = s.buf[1:]
	return &Message{
		Offset:      r.Offset,
		Key:         r.Key,
		Value:       r.Value,
		TimestampMs: r.Timestamp.UnixMilli(),
	}, true, nil
}

func (s *kafkaStream) Close() error {
	s.client.Close()
	return nil
}
