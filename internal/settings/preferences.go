package settings

import (
	"context"
	"fmt"

	"media-explorer/internal/logging"
)

const (
	keyDefaultDirectory = "kfe_default_dir"
	keyGridDensity      = "kfe_file_list_variant"
)

// Density is how many results the viewer shows at once.
type Density string

const (
	DensitySmall  Density = "small"
	DensityMedium Density = "medium"
	DensityLarge  Density = "large"
)

// Valid reports whether d is a known density.
func (d Density) Valid() bool {
	return d == DensitySmall || d == DensityMedium || d == DensityLarge
}

// Lower returns the next smaller density, stopping at small.
func (d Density) Lower() Density {
	if d == DensityLarge {
		return DensityMedium
	}
	return DensitySmall
}

// Higher returns the next larger density, stopping at large.
func (d Density) Higher() Density {
	if d == DensitySmall {
		return DensityMedium
	}
	return DensityLarge
}

// PageSize is the number of rows shown per screen at this density.
func (d Density) PageSize() int {
	switch d {
	case DensitySmall:
		return 40
	case DensityLarge:
		return 10
	default:
		return 20
	}
}

// Preferences reads and writes typed user preferences through a Store.
type Preferences struct {
	store Store
}

// NewPreferences wraps store.
func NewPreferences(store Store) *Preferences {
	return &Preferences{store: store}
}

// DefaultDirectory returns the directory to open on startup, or "" if none
// was chosen. Read errors are logged and treated as unset.
func (p *Preferences) DefaultDirectory(ctx context.Context) string {
	v, _, err := p.store.Get(ctx, keyDefaultDirectory)
	if err != nil {
		logging.Warn("Failed to read default directory: %v", err)
		return ""
	}
	return v
}

// SetDefaultDirectory records name as the startup directory.
func (p *Preferences) SetDefaultDirectory(ctx context.Context, name string) error {
	if err := p.store.Set(ctx, keyDefaultDirectory, name); err != nil {
		return fmt.Errorf("failed to save default directory: %w", err)
	}
	return nil
}

// GridDensity returns the stored density, or def when unset or invalid.
func (p *Preferences) GridDensity(ctx context.Context, def Density) Density {
	v, ok, err := p.store.Get(ctx, keyGridDensity)
	if err != nil {
		logging.Warn("Failed to read grid density: %v", err)
		return def
	}
	if !ok || !Density(v).Valid() {
		return def
	}
	return Density(v)
}

// SetGridDensity stores d.
func (p *Preferences) SetGridDensity(ctx context.Context, d Density) error {
	if !d.Valid() {
		return fmt.Errorf("invalid grid density %q", d)
	}
	if err := p.store.Set(ctx, keyGridDensity, string(d)); err != nil {
		return fmt.Errorf("failed to save grid density: %w", err)
	}
	return nil
}
