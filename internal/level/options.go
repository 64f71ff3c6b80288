package level

import "log/slog"

// Option configures a Registry.
type Option func(*registryConfig)

type registryConfig struct {
	logger      *slog.Logger
	hooks       Hooks
	strictClear bool
}

func applyOptions(opts []Option) registryConfig {
	cfg := registryConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return cfg
}

// WithLogger sets the logger used for debug trace lines.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *registryConfig) {
		cfg.logger = logger
	}
}

// WithHooks appends hooks that receive every creation and transition event.
// Nil hooks are dropped.
func WithHooks(hooks ...Hook) Option {
	return func(cfg *registryConfig) {
		for _, h := range hooks {
			if h != nil {
				cfg.hooks = append(cfg.hooks, h)
			}
		}
	}
}

// WithStrictClear makes Level.ClearItem deliver an invisible transition to the
// selected item before dropping it. Off by default: observers of a cleared
// item are not told it went away.
func WithStrictClear(strict bool) Option {
	return func(cfg *registryConfig) {
		cfg.strictClear = strict
	}
}
