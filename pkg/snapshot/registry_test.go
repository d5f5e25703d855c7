package snapshot

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mansu/kaldb/pkg/kaldberr"
)

func TestTolerableCreateErrorAcceptsNil(t *testing.T) {
	require.True(t, tolerableCreateError(nil))
}

func TestTolerableCreateErrorAcceptsAlreadyExists(t *testing.T) {
	err := &kaldberr.AlreadyExistsError{Kind: "snapshots", Name: "chunk-1"}
	require.True(t, tolerableCreateError(err))
}

func TestTolerableCreateErrorRejectsOtherErrors(t *testing.T) {
	err := kaldberr.NewMetadataStoreError("create", errors.New("dial timeout"))
	require.False(t, tolerableCreateError(err))
}
