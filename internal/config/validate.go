package config

import (
	"fmt"
	"time"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := c.OpenGov.validate(); err != nil {
		return fmt.Errorf("opengov: %w", err)
	}
	if err := c.Scheduler.validate(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	return nil
}

func (o *OpenGovConfig) validate() error {
	if o.BaseURL == "" {
		return fmt.Errorf("base_url must not be empty")
	}
	if o.RetryAttempts < 1 {
		return fmt.Errorf("retry_attempts must be >= 1 (got %d)", o.RetryAttempts)
	}
	if o.RetryDelay < 0 {
		return fmt.Errorf("retry_delay must be >= 0 (got %v)", o.RetryDelay)
	}
	if o.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", o.BatchSize)
	}
	return nil
}

func (s *SchedulerConfig) validate() error {
	if _, err := ParseFetchTime(s.FetchTime); err != nil {
		return fmt.Errorf("fetch_time: %w", err)
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", s.Timezone, err)
	}
	if s.IngestWorkers < 1 {
		return fmt.Errorf("ingest_workers must be >= 1 (got %d)", s.IngestWorkers)
	}
	return nil
}

// ParseFetchTime parses a wall-clock "HH:MM" string into hour and minute.
func ParseFetchTime(raw string) (time.Time, error) {
	t, err := time.Parse("15:04", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, want HH:MM: %w", raw, err)
	}
	return t, nil
}
