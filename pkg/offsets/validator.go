// Package offsets implements the offset-range validation algorithm: a pure
// function that reconciles a recovery task's requested [start,end] against
// the upstream log's currently retained [earliest,latest].
package offsets

// PartitionOffsets is a validated, possibly-clamped offset range ready to be
// consumed from the upstream log.
type PartitionOffsets struct {
	StartOffset int64
	EndOffset   int64
}

// Validate classifies (kafkaEarliest, kafkaLatest, taskStart, taskEnd) into
// one of five cases and returns the clamped range to recover, or nil if the
// task is unrecoverable.
//
// Preconditions: kafkaEarliest <= kafkaLatest and taskStart <= taskEnd.
// Validate is a total, deterministic function of its four inputs: equal
// inputs always produce equal outputs.
func Validate(kafkaEarliest, kafkaLatest, taskStart, taskEnd int64) *PartitionOffsets {
	switch {
	case taskEnd < kafkaEarliest:
		// Entirely before: the data has aged out of the upstream log.
		return nil
	case taskStart > kafkaLatest:
		// Entirely after: the upstream hasn't produced this data yet.
		return nil
	case taskStart >= kafkaEarliest && taskEnd <= kafkaLatest:
		// Entirely inside.
		return &PartitionOffsets{StartOffset: taskStart, EndOffset: taskEnd}
	case taskStart < kafkaEarliest:
		// Overlaps the beginning of the retained range.
		return &PartitionOffsets{StartOffset: kafkaEarliest, EndOffset: taskEnd}
	default:
		// taskEnd > kafkaLatest: overlaps the end of the retained range.
		return &PartitionOffsets{StartOffset: taskStart, EndOffset: kafkaLatest}
	}
}
