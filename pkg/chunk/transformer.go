package chunk

import (
	"encoding/json"
	"time"
)

// ParsedMessage is a message after the configured data transformer has
// parsed it. KalDB's full-text index engine (the consumer of the parsed
// fields beyond timestamp) is out of scope here; the chunk builder only
// needs the timestamp to compute a snapshot's time range.
type ParsedMessage struct {
	TimestampMs int64
	Fields      map[string]any
}

// Transformer parses a raw upstream message value into a ParsedMessage.
// KalDB upstream supports a configurable transformer chain; this package
// exposes only the single seam the chunk builder needs.
type Transformer interface {
	Parse(value []byte) (*ParsedMessage, error)
}

// JSONLineTransformer parses each message value as a single JSON object. A
// "timestamp" field (epoch milliseconds) is used for the snapshot's time
// range; if absent or not a number, Parse uses the current time instead.
type JSONLineTransformer struct{}

func (JSONLineTransformer) Parse(value []byte) (*ParsedMessage, error) {
	var fields map[string]any
	if err := json.Unmarshal(value, &fields); err != nil {
		return nil, err
	}

	ts := time.Now().UnixMilli()
	if raw, ok := fields["timestamp"]; ok {
		if f, ok := raw.(float64); ok {
			ts = int64(f)
		}
	}

	return &ParsedMessage{TimestampMs: ts, Fields: fields}, nil
}
