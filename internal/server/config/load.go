package config

import (
	"fmt"

	"github.com/yndnr/seqlink-go/internal/infra/confloader"
)

// Load builds the configuration from defaults, the optional file at path
// and the environment, then verifies it.
func Load(path string) (*ServerConfig, error) {
	cfg := Default()
	l := confloader.NewLoader(confloader.WithConfigFile(path))
	if err := l.Load(cfg); err != nil {
		return nil, err
	}
	if err := Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
