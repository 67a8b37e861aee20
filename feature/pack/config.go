package pack

import "runtime"

// Config holds configuration for patch packaging.
type Config struct {
	// Workers bounds concurrent file hashing. Zero uses the CPU count.
	Workers int `mapstructure:"workers" default:"0"`
	// ArchivePrefix is prepended to the version in archive file names.
	ArchivePrefix string `mapstructure:"archive_prefix" default:"patch_"`
	// ManifestName is the manifest file name inside packs/<env>.
	ManifestName string `mapstructure:"manifest_name" default:"manifest.json"`
	// IndexName is the patch index file name inside the output directory.
	IndexName string `mapstructure:"index_name" default:"patches.json"`
}

// withDefaults fills zero fields, so a zero Config is usable in tests.
func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.ArchivePrefix == "" {
		c.ArchivePrefix = "patch_"
	}
	if c.ManifestName == "" {
		c.ManifestName = "manifest.json"
	}
	if c.IndexName == "" {
		c.IndexName = "patches.json"
	}
	return c
}
