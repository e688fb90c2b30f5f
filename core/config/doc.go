// Package config provides configuration management for the Tilesheet Manager.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Registry: remote tile registry endpoint, token, and timeouts
//   - Storage: S3/MinIO credentials and archive bucket settings
//   - Log: logging level and format
//   - Tilesheet: local work directory, layer capacity, chunk size, optimizer
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Registry.Endpoint)
package config
