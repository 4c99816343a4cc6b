package internal

import (
	"io"

	"github.com/starford/claudekit/internal/logging"
	"github.com/starford/claudekit/internal/storage"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config    *Config
	logger    *logging.Logger
	logOutput io.Writer
	files     storage.FileManager
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogger sets the logger, overriding the configured level and format.
func WithLogger(l *logging.Logger) Option {
	return func(a *application) {
		a.logger = l
	}
}

// WithLogOutput sets where the configured logger writes. Defaults to stderr.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOutput = w
	}
}

// WithFileManager replaces the filesystem collaborator used by components.
func WithFileManager(f storage.FileManager) Option {
	return func(a *application) {
		a.files = f
	}
}
