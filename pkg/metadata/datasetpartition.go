package metadata

import (
	"context"
	"encoding/json"

	"github.com/mansu/kaldb/pkg/kaldberr"
	"github.com/mansu/kaldb/pkg/types"
)

const kindDatasets = "datasets"

// DatasetPartitionStore is the metadata sub-store for
// types.DatasetPartitionMetadata.
type DatasetPartitionStore struct {
	client *EtcdClient
}

// NewDatasetPartitionStore binds a DatasetPartitionStore to client.
func NewDatasetPartitionStore(client *EtcdClient) *DatasetPartitionStore {
	return &DatasetPartitionStore{client: client}
}

func (s *DatasetPartitionStore) Create(ctx context.Context, meta *types.DatasetPartitionMetadata) error {
	return s.client.create(ctx, kindDatasets, meta.Name, meta)
}

func (s *DatasetPartitionStore) Update(ctx context.Context, meta *types.DatasetPartitionMetadata) error {
	return s.client.update(ctx, kindDatasets, meta.Name, meta)
}

func (s *DatasetPartitionStore) Delete(ctx context.Context, name string) error {
	return s.client.delete(ctx, kindDatasets, name)
}

func (s *DatasetPartitionStore) Get(ctx context.Context, name string) (*types.DatasetPartitionMetadata, error) {
	var meta types.DatasetPartitionMetadata
	if err := s.client.get(ctx, kindDatasets, name, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *DatasetPartitionStore) List(ctx context.Context) ([]*types.DatasetPartitionMetadata, error) {
	raw, err := s.client.list(ctx, kindDatasets)
	if err != nil {
		return nil, err
	}
	out := make([]*types.DatasetPartitionMetadata, 0, len(raw))
	for _, data := range raw {
		var meta types.DatasetPartitionMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			return nil, kaldberr.NewMetadataStoreError("unmarshal datasetPartition", err)
		}
		out = append(out, &meta)
	}
	return out, nil
}
