package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mansu/kaldb/pkg/types"
)

const sampleYAML = `
role: RECOVERY
upstream:
  bootstrapServers: ["broker-1:9092", "broker-2:9092"]
  topic: logs
  clientGroup: kaldb-recovery
blob:
  bucket: kaldb-chunks
  region: us-east-1
coordination:
  endpoints: ["etcd-1:2379"]
  prefix: kaldb
manager:
  schedulePeriodMins: 5
indexer:
  maxOffsetDelayMessages: 10000
server:
  port: 8080
  healthEndpoint: /health
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "kaldb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadParsesFullConfig(t *testing.T) {
	path := writeConfig(t, sampleYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, types.RoleRecovery, cfg.Role)
	require.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Upstream.BootstrapServers)
	require.Equal(t, "logs", cfg.Upstream.Topic)
	require.Equal(t, "kaldb-chunks", cfg.Blob.Bucket)
	require.Equal(t, []string{"etcd-1:2379"}, cfg.Coordination.Endpoints)
	require.Equal(t, "kaldb", cfg.Coordination.Prefix)
	require.Equal(t, 5, cfg.Manager.SchedulePeriodMins)
	require.Equal(t, int64(10000), cfg.Indexer.MaxOffsetDelayMessages)
	require.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadRejectsMissingCoordinationPrefix(t *testing.T) {
	path := writeConfig(t, `
role: MANAGER
coordination:
  endpoints: ["etcd-1:2379"]
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsUnknownRole(t *testing.T) {
	path := writeConfig(t, `
role: BOGUS
coordination:
  endpoints: ["etcd-1:2379"]
  prefix: kaldb
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverrideWinsOverFile(t *testing.T) {
	path := writeConfig(t, sampleYAML)
	t.Setenv("KALDB_BLOB_BUCKET", "override-bucket")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "override-bucket", cfg.Blob.Bucket)
}

func TestEnvOverrideSetsBlobCredentials(t *testing.T) {
	path := writeConfig(t, sampleYAML)
	t.Setenv("KALDB_BLOB_ACCESS_KEY_ID", "AKIDEXAMPLE")
	t.Setenv("KALDB_BLOB_SECRET_ACCESS_KEY", "secretkey")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "AKIDEXAMPLE", cfg.Blob.AccessKeyID)
	require.Equal(t, "secretkey", cfg.Blob.SecretAccessKey)
}

func TestRequireRecoveryFailsWithoutBootstrapServers(t *testing.T) {
	path := writeConfig(t, `
role: RECOVERY
coordination:
  endpoints: ["etcd-1:2379"]
  prefix: kaldb
blob:
  bucket: kaldb-chunks
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Error(t, cfg.RequireRecovery())
}

func TestRequireManagerFailsWithoutSchedulePeriod(t *testing.T) {
	path := writeConfig(t, `
role: MANAGER
coordination:
  endpoints: ["etcd-1:2379"]
  prefix: kaldb
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Error(t, cfg.RequireManager())
}
