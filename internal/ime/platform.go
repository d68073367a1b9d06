package ime

import (
	"os/exec"
)

// Platform registers the input method with the desktop's IME framework.
// The Engine does the typing; implementations only handle system
// integration.
type Platform interface {
	// Name returns the platform name (e.g., "linux").
	Name() string

	// Available returns true if this platform implementation is available.
	Available() bool

	// Install registers the input method for the current user.
	Install() error

	// Uninstall removes the registration.
	Uninstall() error

	// IsInstalled returns true if the input method is registered.
	IsInstalled() bool

	// IsActive returns true if the input method is currently selected.
	IsActive() bool

	// Activate makes this input method the active one.
	Activate() error
}

// PlatformConfig contains platform-specific configuration.
type PlatformConfig struct {
	// ComponentDir is where the framework looks for component files.
	ComponentDir string

	// EnginePath is the server binary the framework launches. Empty means
	// vietime-ibus next to the running executable or on PATH.
	EnginePath string

	// DisplayName is shown to users in system preferences.
	DisplayName string

	// IconPath is the path to the input method icon.
	IconPath string

	// run executes framework tools. Nil means os/exec.
	run func(name string, args ...string) ([]byte, error)
}

// DefaultPlatformConfig returns the configuration used by the CLI.
func DefaultPlatformConfig(componentDir string) PlatformConfig {
	return PlatformConfig{
		ComponentDir: componentDir,
		DisplayName:  "Vietnamese (vietime)",
	}
}

func (c PlatformConfig) command(name string, args ...string) ([]byte, error) {
	if c.run != nil {
		return c.run(name, args...)
	}
	return exec.Command(name, args...).Output()
}

// NewPlatform returns the implementation for the running OS.
func NewPlatform(cfg PlatformConfig) Platform {
	return newPlatform(cfg)
}
