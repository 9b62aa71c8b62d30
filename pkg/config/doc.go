// Package config loads configuration structs from environment variables.
//
// A best-effort .env load runs once per process before the first parse, so
// local development can keep settings in a dotfile while deployments rely on
// real environment variables.
//
// Example:
//
//	type APIConfig struct {
//		BaseURL string        `env:"BOOKSTORE_API_URL,required"`
//		Timeout time.Duration `env:"BOOKSTORE_API_TIMEOUT" envDefault:"10s"`
//	}
//
//	var cfg APIConfig
//	if err := config.Load(&cfg); err != nil {
//		// handle error
//	}
package config
