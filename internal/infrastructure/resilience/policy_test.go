package resilience

import (
	"testing"
	"time"
)

func TestNormalizeFillsProviderDefaults(t *testing.T) {
	cfg := Config{RetryMaxAttempts: 2, BreakerEnabled: true}.normalize()

	if cfg.RetryMaxAttempts != 2 {
		t.Fatalf("explicit attempts overwritten: %d", cfg.RetryMaxAttempts)
	}
	if cfg.RetryInitialBackoff != 500*time.Millisecond || cfg.RetryMaxBackoff != 5*time.Second {
		t.Fatalf("unexpected backoff window %v..%v", cfg.RetryInitialBackoff, cfg.RetryMaxBackoff)
	}
	if cfg.BreakerMinRequests != 5 || cfg.BreakerOpenTimeout != 15*time.Second || cfg.BreakerHalfOpenMaxCalls != 1 {
		t.Fatalf("unexpected breaker defaults: %+v", cfg)
	}
}

func TestNormalizeKeepsMaxBackoffAboveInitial(t *testing.T) {
	cfg := Config{RetryInitialBackoff: 10 * time.Second}.normalize()
	if cfg.RetryMaxBackoff != 10*time.Second {
		t.Fatalf("max backoff = %v, want initial backoff", cfg.RetryMaxBackoff)
	}

	cfg = Config{BreakerFailureRatio: 1.5, AttemptTimeout: -time.Second}.normalize()
	if cfg.BreakerFailureRatio != DefaultConfig().BreakerFailureRatio || cfg.AttemptTimeout != 0 {
		t.Fatalf("invalid values not reset: %+v", cfg)
	}
}
