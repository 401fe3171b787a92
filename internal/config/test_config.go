package config

import "time"

// LoadTestConfig returns a configuration for an in-memory sqlite database and
// local storage, with Redis disabled.
func LoadTestConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:      "localhost",
			Port:      8081,
			PublicURL: "http://localhost:8081",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   ":memory:",
		},
		JWT: JWTConfig{
			Secret: "test-secret",
			TTL:    time.Hour,
		},
		Storage: StorageConfig{
			Provider: "local",
			BasePath: "storage",
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
		},
		Tasks: TasksConfig{
			SweepSchedule: "@every 1m",
			SweepBatch:    10,
			Concurrency:   1,
		},
		Catalog: CatalogConfig{PageSize: 2},
		Auth: AuthConfig{
			LoginMaxAttempts: 3,
			LoginWindow:      time.Minute,
		},
		Log: LogConfig{Info: true, Warn: true, Error: true, Output: "stdout"},
	}
}
