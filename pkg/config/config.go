// Package config loads node-level consensus tuning from a TOML file:
// committee sizes, the quorum fraction and per-step timeouts. It is kept
// outside pkg/core/consensus so the consensus core stays a pure,
// collaborator-injected library with no file-system or flag-parsing
// concerns of its own.
package config

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config is the top-level decoded document.
type Config struct {
	Consensus Consensus `toml:"consensus"`
	Logging   Logging   `toml:"logging"`
}

// Consensus holds the committee and timing parameters that drive
// sortition and step progression.
type Consensus struct {
	ValidationCommitteeSize   int   `toml:"validationCommitteeSize"`
	RatificationCommitteeSize int   `toml:"ratificationCommitteeSize"`
	QuorumNumerator           int   `toml:"quorumNumerator"`
	QuorumDenominator         int   `toml:"quorumDenominator"`
	ProposalTimeoutMs         int64 `toml:"proposalTimeoutMs"`
	ValidationTimeoutMs       int64 `toml:"validationTimeoutMs"`
	RatificationTimeoutMs     int64 `toml:"ratificationTimeoutMs"`
}

// Logging holds the logrus level/format knobs.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the built-in configuration, used when no file is
// supplied.
func Default() Config {
	return Config{
		Consensus: Consensus{
			ValidationCommitteeSize:   64,
			RatificationCommitteeSize: 64,
			QuorumNumerator:           2,
			QuorumDenominator:         3,
			ProposalTimeoutMs:         5000,
			ValidationTimeoutMs:       5000,
			RatificationTimeoutMs:     5000,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load decodes a TOML document at path, falling back to field-by-field
// defaults for anything the file doesn't set.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "decode config file %s", path)
	}

	return cfg, nil
}

// ProposalTimeout returns the Proposal step timeout as a time.Duration.
func (c Consensus) ProposalTimeout() time.Duration {
	return time.Duration(c.ProposalTimeoutMs) * time.Millisecond
}

// ValidationTimeout returns the Validation step timeout as a
// time.Duration.
func (c Consensus) ValidationTimeout() time.Duration {
	return time.Duration(c.ValidationTimeoutMs) * time.Millisecond
}

// RatificationTimeout returns the Ratification step timeout as a
// time.Duration.
func (c Consensus) RatificationTimeout() time.Duration {
	return time.Duration(c.RatificationTimeoutMs) * time.Millisecond
}

// Validate checks the decoded configuration for internally consistent
// values.
func (c Config) Validate() error {
	if c.Consensus.ValidationCommitteeSize <= 0 {
		return errors.New("consensus.validationCommitteeSize must be positive")
	}
	if c.Consensus.RatificationCommitteeSize <= 0 {
		return errors.New("consensus.ratificationCommitteeSize must be positive")
	}
	if c.Consensus.QuorumNumerator <= 0 || c.Consensus.QuorumDenominator <= 0 ||
		c.Consensus.QuorumNumerator >= c.Consensus.QuorumDenominator {
		return errors.New("consensus quorum fraction must satisfy 0 < numerator < denominator")
	}
	return nil
}
