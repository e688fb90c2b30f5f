package registry

// Config holds configuration for the registry client.
type Config struct {
	// Endpoint is the base URL of the registry API.
	Endpoint string `mapstructure:"endpoint" default:"http://localhost:8080"`
	// Token is the bearer token used for authentication.
	Token string `mapstructure:"token" default:""`
	// TimeoutSeconds is the per-request timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"60"`
}
