// Package config provides configuration management for gridmock.
//
// Configuration is loaded from environment variables using the env package,
// after an optional .env file in the working directory has been applied.
// All configuration values have sensible defaults for local front-end work.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("HTTP server will listen on %s\n", cfg.GetHTTPAddr())
package config
