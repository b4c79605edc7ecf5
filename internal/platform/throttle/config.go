package throttle

import "time"

type Config struct {
	DelayMin      time.Duration
	DelayMax      time.Duration
	BackoffFactor float64
	MaxRetries    int
}

func DefaultConfig() Config {
	return Config{
		DelayMin:      5 * time.Second,
		DelayMax:      10 * time.Second,
		BackoffFactor: 1.5,
		MaxRetries:    3,
	}
}

// NormalizeConfig fills unset or invalid fields with defaults and orders the delay bounds.
func NormalizeConfig(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.DelayMin < 0 {
		cfg.DelayMin = 0
	}
	if cfg.DelayMax <= 0 && cfg.DelayMin == 0 {
		cfg.DelayMin = defaults.DelayMin
		cfg.DelayMax = defaults.DelayMax
	}
	if cfg.DelayMax < cfg.DelayMin {
		cfg.DelayMin, cfg.DelayMax = cfg.DelayMax, cfg.DelayMin
	}
	if cfg.BackoffFactor < 1 {
		cfg.BackoffFactor = defaults.BackoffFactor
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return cfg
}

// BackoffDuration returns min(DelayMin * BackoffFactor^attempt, 3*DelayMax).
func BackoffDuration(cfg Config, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	ceiling := 3 * cfg.DelayMax
	wait := float64(cfg.DelayMin)
	for i := 0; i < attempt; i++ {
		wait *= cfg.BackoffFactor
		if wait >= float64(ceiling) {
			return ceiling
		}
	}
	if time.Duration(wait) > ceiling {
		return ceiling
	}
	return time.Duration(wait)
}
