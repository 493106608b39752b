package driving

import "github.com/mnemolet/mnemolet/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Load resolves defaults, the config file and the environment, then validates.
	Load() (*domain.Settings, error)

	// Get returns the settings resolved by the last Load.
	Get() *domain.Settings

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings

	// WriteDefaultConfig writes a default config file. An existing file is
	// refused unless force is set, in which case it is backed up first.
	// Returns the backup path, if any.
	WriteDefaultConfig(force bool) (string, error)
}
