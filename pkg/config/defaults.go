package config

const (
	defaultAPIListen       = ":5000"
	defaultClientAPITarget = "http://localhost:5000"

	// DefaultAuthSecret is the token signing secret used when none is
	// configured. The serve command warns when it is still in effect.
	DefaultAuthSecret = "dev-secret"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values. Storage fields
// default to empty, which selects the in-memory store; events default to
// disabled.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
	}
}
