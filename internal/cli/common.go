package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/danieljhkim/brewpkg/internal/config"
	"github.com/danieljhkim/brewpkg/internal/engine"
	"github.com/danieljhkim/brewpkg/internal/execx"
	"github.com/danieljhkim/brewpkg/internal/formula"
	"github.com/danieljhkim/brewpkg/internal/fsops"
	"github.com/danieljhkim/brewpkg/internal/hash"
	"github.com/danieljhkim/brewpkg/internal/pkgbuild"
)

// loadSettings resolves configuration for cmd, binding its flags.
func loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	return config.Load(config.LoadOptions{
		ConfigFile: configFile,
		Flags:      cmd.Flags(),
	})
}

// newLogger creates the stderr logger shared by every component.
func newLogger(w io.Writer, settings *config.Settings) (*log.Logger, error) {
	logger := log.NewWithOptions(w, log.Options{Prefix: config.AppName})

	if verbose {
		logger.SetLevel(log.DebugLevel)
		return logger, nil
	}
	level, err := log.ParseLevel(settings.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", settings.LogLevel, err)
	}
	logger.SetLevel(level)
	return logger, nil
}

// newProvider returns a manifest-backed provider when manifestPath is set and
// a brew-backed one otherwise.
func newProvider(runner execx.Runner, fs fsops.FS, settings *config.Settings, manifestPath string) (formula.Provider, error) {
	paths := settings.Paths()
	if manifestPath != "" {
		provider, err := formula.LoadManifest(fs, paths, manifestPath)
		if err != nil {
			return nil, err
		}
		return provider, nil
	}
	return formula.NewBrewProvider(runner, settings.BrewPath, fs, paths), nil
}

// newEngine creates a new engine with real implementations of all dependencies.
func newEngine(cmd *cobra.Command, manifestPath string) (*engine.Engine, *config.Settings, error) {
	settings, err := loadSettings(cmd)
	if err != nil {
		return nil, nil, err
	}

	logger, err := newLogger(cmd.ErrOrStderr(), settings)
	if err != nil {
		return nil, nil, err
	}

	fs := fsops.NewRealFS()
	fs.OnSkip = func(path string, mode os.FileMode) {
		logger.Debug("Skipping special file", "path", path, "type", mode.Type().String())
	}

	// pkgbuild output goes to stderr so --json keeps stdout clean
	runner := execx.NewExecRunner(settings.Timeout, cmd.ErrOrStderr(), cmd.ErrOrStderr())

	provider, err := newProvider(runner, fs, settings, manifestPath)
	if err != nil {
		return nil, nil, err
	}

	builder := pkgbuild.NewToolBuilder(runner, settings.PkgbuildPath)
	hasher := hash.NewSHA256Hasher()

	logger.Debug("Loaded settings", "prefix", settings.Prefix, "cellar", settings.Paths().Cellar)
	return engine.New(provider, fs, builder, hasher, settings.Paths(), settings.Interpreters, logger), settings, nil
}

// FormatError formats an error for display.
func FormatError(err error) string {
	return errorColor.Sprintf("Error: %v", err)
}

// outputJSON outputs a value as JSON to w.
func outputJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// cwd returns the working directory for request paths.
func cwd() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return dir, nil
}
