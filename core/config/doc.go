// Package config provides configuration management for the table manager.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file. Defaults come from `default` struct tags.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Log: Logging level and format
//   - Database: table store driver (sqlite or mysql) and connection details
//   - Storage: S3/MinIO credentials and the bucket patches are published to
//   - Pack: hashing workers and patch artifact names
//
// Project layout (environments, directories, join columns) lives in the
// project file, not here.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Pack.Workers)
package config
