// Package config provides configuration management for the site generator.
//
// Configuration is loaded from environment variables and validated on startup.
// Every option has a default suited to a checkout with data/, templates/ and
// static/ next to each other; command-line flags may override the paths.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg)
package config
