package gateway

import "time"

// Config is the environment-supplied gateway configuration. Base URL and
// timeouts are the only externally configurable behavior of this layer.
type Config struct {
	// BaseURL is the backend prefix, e.g. "http://localhost:4000/api".
	BaseURL string `env:"BOOKSTORE_API_URL,required"`

	// Timeout bounds standard calls.
	Timeout time.Duration `env:"BOOKSTORE_API_TIMEOUT" envDefault:"10s"`

	// UploadTimeout bounds upload-type calls.
	UploadTimeout time.Duration `env:"BOOKSTORE_API_UPLOAD_TIMEOUT" envDefault:"30s"`
}

// DefaultConfig returns the documented defaults with the given base URL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:       baseURL,
		Timeout:       10 * time.Second,
		UploadTimeout: 30 * time.Second,
	}
}
