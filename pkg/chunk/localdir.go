package chunk

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// localDirManager creates and tears down the local index directories
// chunk builds live in while being assembled, keyed by chunk id: ephemeral
// local state under one base directory, indexed by a generated id.
type localDirManager struct {
	baseDir string
}

func newLocalDirManager(baseDir string) *localDirManager {
	return &localDirManager{baseDir: baseDir}
}

// create allocates a fresh chunk id of the form
// <partitionId>-<startOffset>-<endOffset>-<uuidv4> and its directory. The
// trailing uuid is fresh on every call, including retries of the same
// offset range, so a retried build never collides with a prior one.
func (m *localDirManager) create(partitionID string, startOffset, endOffset int64) (chunkID string, dir string, err error) {
	chunkID = fmt.Sprintf("%s-%d-%d-%s", partitionID, startOffset, endOffset, uuid.NewString())
	dir = filepath.Join(m.baseDir, chunkID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", err
	}
	return chunkID, dir, nil
}

// remove deletes dir and everything under it. Safe to call on a dir that
// was already removed.
func (m *localDirManager) remove(dir string) error {
	return os.RemoveAll(dir)
}
