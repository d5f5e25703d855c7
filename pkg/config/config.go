// Package config loads KalDB's configuration surface from a YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mansu/kaldb/pkg/kaldberr"
	"github.com/mansu/kaldb/pkg/types"
)

var errRequired = errors.New("required field is empty")

func errInvalidRole(role types.NodeRole) error {
	return fmt.Errorf("unknown role %q", role)
}

// UpstreamConfig describes how to reach the upstream log.
type UpstreamConfig struct {
	BootstrapServers []string `yaml:"bootstrapServers"`
	Topic            string   `yaml:"topic"`
	ClientGroup      string   `yaml:"clientGroup"`
}

// BlobConfig describes the blob store backing chunk uploads.
type BlobConfig struct {
	Bucket   string `yaml:"bucket"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`

	// AccessKeyID/SecretAccessKey, when both are set, replace the default
	// AWS credential chain with a static provider, whether or not Endpoint
	// is set. A self-hosted S3-compatible store behind a custom endpoint
	// rarely has the instance role or shared credentials file the default
	// chain expects. Real deployments against AWS S3 itself leave these
	// empty and rely on the default chain.
	AccessKeyID     string `yaml:"accessKeyId"`
	SecretAccessKey string `yaml:"secretAccessKey"`
}

// CoordinationConfig describes the coordination store connection.
type CoordinationConfig struct {
	Endpoints []string `yaml:"endpoints"`
	Prefix    string   `yaml:"prefix"`
}

// ManagerConfig holds manager-role specific tunables.
type ManagerConfig struct {
	SchedulePeriodMins int `yaml:"schedulePeriodMins"`

	// SnapshotLifespanHours bounds how long a published snapshot record is
	// kept before the deletion service prunes it. Defaults to 24h when unset.
	SnapshotLifespanHours int `yaml:"snapshotLifespanHours"`
}

// DefaultSnapshotLifespanHours is used when SnapshotLifespanHours is unset.
const DefaultSnapshotLifespanHours = 24

// IndexerConfig holds indexer-role specific tunables.
type IndexerConfig struct {
	MaxOffsetDelayMessages int64 `yaml:"maxOffsetDelayMessages"`
}

// ServerConfig describes the process's listening surface.
type ServerConfig struct {
	Port           int    `yaml:"port"`
	HealthEndpoint string `yaml:"healthEndpoint"`
}

// Config is KalDB's full configuration surface. Schema validation beyond
// the required-field checks in Validate is out of scope.
type Config struct {
	Role         types.NodeRole     `yaml:"role"`
	Upstream     UpstreamConfig     `yaml:"upstream"`
	Blob         BlobConfig         `yaml:"blob"`
	Coordination CoordinationConfig `yaml:"coordination"`
	Manager      ManagerConfig      `yaml:"manager"`
	Indexer      IndexerConfig      `yaml:"indexer"`
	Server       ServerConfig       `yaml:"server"`
}

// Load reads path as YAML and applies KALDB_-prefixed environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &kaldberr.ConfigError{Field: "file", Err: err}
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &kaldberr.ConfigError{Field: "yaml", Err: err}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides lets an operator override the handful of fields that
// commonly vary per deployment environment without editing the file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("KALDB_ROLE"); v != "" {
		cfg.Role = types.NodeRole(strings.ToUpper(v))
	}
	if v := os.Getenv("KALDB_UPSTREAM_BOOTSTRAP_SERVERS"); v != "" {
		cfg.Upstream.BootstrapServers = strings.Split(v, ",")
	}
	if v := os.Getenv("KALDB_UPSTREAM_TOPIC"); v != "" {
		cfg.Upstream.Topic = v
	}
	if v := os.Getenv("KALDB_BLOB_BUCKET"); v != "" {
		cfg.Blob.Bucket = v
	}
	if v := os.Getenv("KALDB_BLOB_REGION"); v != "" {
		cfg.Blob.Region = v
	}
	if v := os.Getenv("KALDB_BLOB_ACCESS_KEY_ID"); v != "" {
		cfg.Blob.AccessKeyID = v
	}
	if v := os.Getenv("KALDB_BLOB_SECRET_ACCESS_KEY"); v != "" {
		cfg.Blob.SecretAccessKey = v
	}
	if v := os.Getenv("KALDB_COORDINATION_ENDPOINTS"); v != "" {
		cfg.Coordination.Endpoints = strings.Split(v, ",")
	}
	if v := os.Getenv("KALDB_COORDINATION_PREFIX"); v != "" {
		cfg.Coordination.Prefix = v
	}
	if v := os.Getenv("KALDB_MANAGER_SCHEDULE_PERIOD_MINS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Manager.SchedulePeriodMins = n
		}
	}
}

// Validate checks the fields every role depends on regardless of which
// subcommand is running: the coordination store location and the process
// role. Role-specific requirements (e.g. upstream bootstrap servers for
// recovery) are checked by the subcommand that needs them.
func (c *Config) Validate() error {
	switch c.Role {
	case types.RoleIndex, types.RoleQuery, types.RoleCache, types.RoleManager, types.RoleRecovery, types.RolePreprocessor:
	default:
		return &kaldberr.ConfigError{Field: "role", Err: errInvalidRole(c.Role)}
	}
	if len(c.Coordination.Endpoints) == 0 {
		return &kaldberr.ConfigError{Field: "coordination.endpoints", Err: errRequired}
	}
	if c.Coordination.Prefix == "" {
		return &kaldberr.ConfigError{Field: "coordination.prefix", Err: errRequired}
	}
	return nil
}

// RequireRecovery checks the fields the recovery role needs beyond the
// common set: upstream connectivity and a blob bucket to upload chunks to.
func (c *Config) RequireRecovery() error {
	if len(c.Upstream.BootstrapServers) == 0 {
		return &kaldberr.ConfigError{Field: "upstream.bootstrapServers", Err: errRequired}
	}
	if c.Upstream.Topic == "" {
		return &kaldberr.ConfigError{Field: "upstream.topic", Err: errRequired}
	}
	if c.Blob.Bucket == "" {
		return &kaldberr.ConfigError{Field: "blob.bucket", Err: errRequired}
	}
	return nil
}

// RequireManager checks the fields the manager role needs beyond the
// common set.
func (c *Config) RequireManager() error {
	if c.Manager.SchedulePeriodMins <= 0 {
		return &kaldberr.ConfigError{Field: "manager.schedulePeriodMins", Err: errRequired}
	}
	return nil
}
