package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"bida-server/internal/config"
)

var sharedWriter io.Writer = os.Stdout

// Init configures the global zerolog logger and the shared writer used by
// the HTTP request logger.
func Init(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	sharedWriter = os.Stdout
	if cfg.File != "" {
		if w, err := newCappedFileWriter(cfg.File, cfg.MaxMB); err == nil {
			sharedWriter = w
		}
	}

	var output io.Writer = sharedWriter
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: sharedWriter}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger
}

// Writer returns the sink shared between zerolog and the request logger.
func Writer() io.Writer {
	return sharedWriter
}
