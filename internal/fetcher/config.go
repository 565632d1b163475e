package fetcher

import "time"

// Config controls the retry behaviour of the Fetcher.
type Config struct {
	// MaxAttempts is how many times a URL is tried before giving up.
	MaxAttempts int `yaml:"max_attempts"`

	// BackoffBase is the base delay; attempt k waits BackoffBase * k.
	BackoffBase time.Duration `yaml:"backoff_base"`
}

// DefaultConfig returns the baseline retry policy: three attempts with linear
// backoff.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		BackoffBase: 2 * time.Second,
	}
}
