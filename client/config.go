package client

import (
	"time"

	"github.com/NethermindEth/notewise/core/address"
)

// Config tunes the orchestrator. The mapstructure tags match the CLI configuration keys.
type Config struct {
	PollInterval        time.Duration `mapstructure:"poll-interval" validate:"gt=0"`
	MaxPollAttempts     int           `mapstructure:"poll-max-attempts" validate:"min=1"`
	ProvingRetries      int           `mapstructure:"proving-retries" validate:"min=0"`
	ProvingBackoff      time.Duration `mapstructure:"proving-backoff" validate:"min=0"`
	MaxConcurrentProofs uint          `mapstructure:"max-concurrent-proofs" validate:"min=1"`
	SeedAttempts        uint64        `mapstructure:"seed-attempts" validate:"min=1"`
}

func DefaultConfig() Config {
	return Config{
		PollInterval:        time.Second,
		MaxPollAttempts:     30,
		ProvingRetries:      3,
		ProvingBackoff:      200 * time.Millisecond,
		MaxConcurrentProofs: 4,
		SeedAttempts:        address.DefaultSeedSearch().MaxAttempts,
	}
}
