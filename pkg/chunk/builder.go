// Package chunk builds a blob-store chunk from an upstream message stream:
// parse, index locally, roll over to blob storage, and return the snapshot
// record for the caller to publish.
package chunk

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/mansu/kaldb/pkg/blob"
	"github.com/mansu/kaldb/pkg/kaldberr"
	"github.com/mansu/kaldb/pkg/log"
	"github.com/mansu/kaldb/pkg/metrics"
	"github.com/mansu/kaldb/pkg/types"
	"github.com/mansu/kaldb/pkg/upstream"
)

// chunkMetadata is the `<chunkId>.metadata` record uploaded alongside a
// chunk's index segments, describing its timestamp range.
type chunkMetadata struct {
	ChunkID          string `json:"chunkId"`
	PartitionID      string `json:"partitionId"`
	StartTimeEpochMs int64  `json:"startTimeEpochMs"`
	EndTimeEpochMs   int64  `json:"endTimeEpochMs"`
	MaxOffset        int64  `json:"maxOffset"`
}

// Builder builds chunks from upstream.MessageStreams: it indexes messages
// into a local segment directory and uploads that directory to a blob
// store. It does not publish the resulting snapshot record.
type Builder struct {
	store          blob.Store
	transformer    Transformer
	dirs           *localDirManager
	maxSegmentSize int
}

// Option configures a Builder.
type Option func(*Builder)

// WithTransformer overrides the default JSONLineTransformer.
func WithTransformer(t Transformer) Option {
	return func(b *Builder) { b.transformer = t }
}

// WithMaxSegmentSize overrides the default segment rollover threshold.
func WithMaxSegmentSize(n int) Option {
	return func(b *Builder) { b.maxSegmentSize = n }
}

// NewBuilder returns a Builder that stages local index directories under
// localBaseDir and uploads finished chunks through store.
func NewBuilder(store blob.Store, localBaseDir string, opts ...Option) *Builder {
	b := &Builder{
		store:       store,
		transformer: JSONLineTransformer{},
		dirs:        newLocalDirManager(localBaseDir),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build consumes stream to completion and returns a populated
// types.Snapshot on success: create a local index directory; parse and
// append each message, counting successes and failures; close the index on
// exhaustion; upload to blobURIPrefix/<chunkId>/; populate the snapshot
// record fields; clean up the local directory in all cases. startOffset
// and endOffset are the task's clamped range and feed the chunk id's
// naming convention; they play no other role in the build.
func (b *Builder) Build(ctx context.Context, partitionID string, startOffset, endOffset int64, blobURIPrefix string, stream upstream.MessageStream) (*types.Snapshot, error) {
	logger := log.WithPartition(partitionID)

	chunkID, dir, err := b.dirs.create(partitionID, startOffset, endOffset)
	if err != nil {
		metrics.RolloversFailed.Inc()
		return nil, kaldberr.NewBlobIoError("create local index dir", err)
	}
	defer func() {
		if rmErr := b.dirs.remove(dir); rmErr != nil {
			logger.Warn().Str("dir", dir).Err(rmErr).Msg("failed to remove local index directory")
		}
	}()

	logger = logger.With().Str("chunk_id", chunkID).Logger()

	writer, err := NewSegmentIndexWriter(dir, b.maxSegmentSize)
	if err != nil {
		metrics.RolloversFailed.Inc()
		return nil, kaldberr.NewBlobIoError("open local index writer", err)
	}

	var (
		minTimestampMs int64 = -1
		maxTimestampMs int64
		maxOffset      int64
		sawMessage     bool
	)

	for {
		msg, ok, err := stream.Next(ctx)
		if err != nil {
			metrics.RolloversFailed.Inc()
			return nil, err
		}
		if !ok {
			break
		}

		parsed, parseErr := b.transformer.Parse(msg.Value)
		if parseErr != nil {
			metrics.MessagesFailed.Inc()
			logger.Warn().Err(parseErr).Int64("offset", msg.Offset).Msg("failed to parse message")
			continue
		}

		if err := writer.Append(parsed); err != nil {
			metrics.RolloversFailed.Inc()
			return nil, kaldberr.NewBlobIoError("append to local index", err)
		}
		metrics.MessagesReceived.Inc()

		sawMessage = true
		if minTimestampMs == -1 || parsed.TimestampMs < minTimestampMs {
			minTimestampMs = parsed.TimestampMs
		}
		if parsed.TimestampMs > maxTimestampMs {
			maxTimestampMs = parsed.TimestampMs
		}
		if msg.Offset > maxOffset {
			maxOffset = msg.Offset
		}
	}

	if err := writer.Close(); err != nil {
		metrics.RolloversFailed.Inc()
		return nil, kaldberr.NewBlobIoError("close local index", err)
	}

	if !sawMessage {
		minTimestampMs = 0
	}

	meta := chunkMetadata{
		ChunkID:          chunkID,
		PartitionID:      partitionID,
		StartTimeEpochMs: minTimestampMs,
		EndTimeEpochMs:   maxTimestampMs,
		MaxOffset:        maxOffset,
	}
	metaBytes, err := json.Marshal(meta)
	if err != nil {
		metrics.RolloversFailed.Inc()
		return nil, kaldberr.NewBlobIoError("marshal chunk metadata", err)
	}
	if err := os.WriteFile(filepath.Join(dir, chunkID+".metadata"), metaBytes, 0644); err != nil {
		metrics.RolloversFailed.Inc()
		return nil, kaldberr.NewBlobIoError("write chunk metadata", err)
	}

	metrics.RolloversInitiated.Inc()

	uploadURI := blobURIPrefix + chunkID + "/"
	if err := b.store.Put(ctx, uploadURI, dir); err != nil {
		metrics.RolloversFailed.Inc()
		return nil, err
	}

	exists, err := b.store.Exists(ctx, uploadURI)
	if err != nil {
		metrics.RolloversFailed.Inc()
		return nil, err
	}
	if !exists {
		metrics.RolloversFailed.Inc()
		return nil, kaldberr.NewBlobIoError("verify upload", errors.New("uploaded chunk not visible in blob store"))
	}

	snap := &types.Snapshot{
		Name:             chunkID,
		SnapshotPath:     uploadURI,
		StartTimeEpochMs: minTimestampMs,
		EndTimeEpochMs:   maxTimestampMs,
		MaxOffset:        maxOffset,
		PartitionID:      partitionID,
	}

	metrics.RolloversCompleted.Inc()
	return snap, nil
}
