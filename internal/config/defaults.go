package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		IntervalSeconds: 300,
		Browsers:        []string{"chrome", "edge", "brave", "firefox"},
		Storage: StorageConfig{
			Path:       "~/.config/hindsight",
			SQLiteFile: "hindsight.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Snapshot: SnapshotConfig{
			TmpDir:               "",
			ShadowTimeoutSeconds: 60,
		},
	}
}
