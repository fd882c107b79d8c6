package domain

import (
	"fmt"
	"time"
)

// Mode selects how aggressively the orchestrator applies fixes.
type Mode string

const (
	ModeSimulate     Mode = "simulate"     // compute everything, never write
	ModeConservative Mode = "conservative" // only low-risk and safe
	ModeStandard     Mode = "standard"     // low/medium-risk and safe
	ModeAggressive   Mode = "aggressive"   // any risk except critical
	ModeInteractive  Mode = "interactive"  // defer each decision to a confirmer
)

// ValidModes enumerates all recognized operating modes.
var ValidModes = []Mode{
	ModeSimulate, ModeConservative, ModeStandard, ModeAggressive, ModeInteractive,
}

// Valid reports whether m names a recognized operating mode.
func (m Mode) Valid() bool {
	for _, v := range ValidModes {
		if m == v {
			return true
		}
	}
	return false
}

// EngineConfig holds tunable engine parameters loaded from .sentinel.yaml.
// The voting constants are empirical, not structural, so they stay
// configurable rather than hard-coded.
type EngineConfig struct {
	Mode            Mode           `yaml:"mode"              json:"mode,omitempty"`
	ConfidenceFloor float64        `yaml:"confidence_floor"  json:"confidence_floor,omitempty"`
	VoteBonus       float64        `yaml:"vote_bonus"        json:"vote_bonus,omitempty"`
	MaxVoteBonus    float64        `yaml:"max_vote_bonus"    json:"max_vote_bonus,omitempty"`
	MinVotes        map[string]int `yaml:"min_votes"         json:"min_votes,omitempty"`
	ExcludePaths    []string       `yaml:"exclude_paths"     json:"exclude_paths,omitempty"`
	Workers         int            `yaml:"workers"           json:"workers,omitempty"`
	CheckpointEvery int            `yaml:"checkpoint_every"  json:"checkpoint_every,omitempty"`
	RunTests        bool           `yaml:"run_tests"         json:"run_tests,omitempty"`
	TestCommand     []string       `yaml:"test_command"      json:"test_command,omitempty"`
	TestTimeoutSec  int            `yaml:"test_timeout_sec"  json:"test_timeout_sec,omitempty"`
	PolicyFile      string         `yaml:"policy_file"       json:"policy_file,omitempty"`
}

// DefaultEngineConfig returns the tuned defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Mode:            ModeSimulate,
		ConfidenceFloor: 0.6,
		VoteBonus:       0.05,
		MaxVoteBonus:    0.2,
		Workers:         4,
		CheckpointEvery: 10,
		TestTimeoutSec:  120,
	}
}

// Validate rejects configurations that cannot have been intended.
func (c EngineConfig) Validate() error {
	if c.Mode != "" {
		valid := false
		for _, m := range ValidModes {
			if c.Mode == m {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("unknown mode %q (valid: %v)", c.Mode, ValidModes)
		}
	}
	if c.ConfidenceFloor < 0 || c.ConfidenceFloor > 1 {
		return fmt.Errorf("confidence_floor must be in [0,1], got %v", c.ConfidenceFloor)
	}
	if c.VoteBonus < 0 || c.MaxVoteBonus < 0 {
		return fmt.Errorf("vote bonuses must be non-negative")
	}
	for pattern, n := range c.MinVotes {
		if n < 1 {
			return fmt.Errorf("min_votes for %q must be >= 1, got %d", pattern, n)
		}
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.CheckpointEvery < 0 {
		return fmt.Errorf("checkpoint_every must be >= 0, got %d", c.CheckpointEvery)
	}
	return nil
}

// MinVotesFor returns the per-pattern minimum vote threshold (default 1).
func (c EngineConfig) MinVotesFor(pattern string) int {
	if n, ok := c.MinVotes[pattern]; ok && n > 0 {
		return n
	}
	return 1
}

// TestTimeout returns the external test run timeout as a duration.
func (c EngineConfig) TestTimeout() time.Duration {
	if c.TestTimeoutSec <= 0 {
		return 120 * time.Second
	}
	return time.Duration(c.TestTimeoutSec) * time.Second
}
