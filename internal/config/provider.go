// SPDX-License-Identifier: MPL-2.0

package config

import "context"

// LoadOptions names the sources a Load call may read from. Zero values
// fall back to the platform config directory.
type LoadOptions struct {
	// ConfigFilePath, when set, is the only file consulted. A missing
	// file is an error in this mode.
	ConfigFilePath string
	// ConfigDirPath replaces the platform config directory lookup.
	ConfigDirPath string
}

// Provider resolves the effective configuration for a run.
type Provider interface {
	Load(ctx context.Context, opts LoadOptions) (*Config, error)
}

type fileProvider struct{}

// NewProvider returns the file-backed Provider.
func NewProvider() Provider {
	return &fileProvider{}
}

func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg, _, err := loadWithOptions(ctx, opts)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
