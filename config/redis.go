package config

import (
	"strings"
	"time"
)

// RedisConfig contains Redis configuration.
// Redis is optional: when disabled, terminal job events are not published.
type RedisConfig struct {
	Enabled            bool     `env:"ENABLED"              envDefault:"false"`
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`

	// JobChannel is the pub/sub channel terminal job events are published on.
	JobChannel string `env:"JOB_CHANNEL" envDefault:"interpay:jobs"`
	// JobSnapshotTTL, when positive, also stores each event under job:<id>.
	JobSnapshotTTL time.Duration `env:"JOB_SNAPSHOT_TTL" envDefault:"1h"`
}

// Sanitize normalises Redis configuration values.
func (c *RedisConfig) Sanitize() {
	c.URI = strings.TrimSpace(c.URI)
	c.JobChannel = strings.TrimSpace(c.JobChannel)
	if c.JobChannel == "" {
		c.JobChannel = "interpay:jobs"
	}
	if c.JobSnapshotTTL < 0 {
		c.JobSnapshotTTL = 0
	}
	if c.UseCluster && c.UseSentinel {
		c.UseSentinel = false
	}
}
