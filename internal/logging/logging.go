package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global logger. Diagnostics go to stderr only:
// stdout is reserved for the single JSON result object each command
// prints.
func Setup(verbose bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(consoleWriter()).With().Caller().Logger()
}

// AddTenantFile mirrors log output into logs/rag_pipeline_<professor>.log
// under the project root, alongside the console writer. The file handle
// lives for the rest of the process.
func AddTenantFile(projectRoot, professor string) error {
	dir := filepath.Join(projectRoot, "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %v", err)
	}
	name := filepath.Join(dir, fmt.Sprintf("rag_pipeline_%s.log", professor))
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %v", name, err)
	}
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(consoleWriter(), f)).
		With().Timestamp().Caller().Logger()
	return nil
}

func consoleWriter() zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
}
