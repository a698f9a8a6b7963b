package sundaecli

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

func Logger(service Service) zerolog.Logger {
	return NewLogger(os.Stdout, service, CommonOpts.LogLevel)
}

// NewLogger builds the service logger at the given level. An empty or
// unparseable level falls back to info.
func NewLogger(w io.Writer, service Service, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().
		Timestamp().
		Str("service", service.Name).
		Str("version", service.Version).
		Logger()
}
