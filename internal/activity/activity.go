package activity

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spqsync/spqsync/internal/globalconfig"
)

// Log is the append-only activity trail under the repository root.
// The engine only ever appends; the log viewer parses it elsewhere.
type Log struct {
	path string
}

func New(root string) *Log {
	return &Log{path: filepath.Join(root, globalconfig.RepoDirName, globalconfig.ActivityLogFile)}
}

func (l *Log) Append(level, format string, a ...any) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open activity log: %w", err)
	}
	line := fmt.Sprintf("%s %-5s %s\n",
		time.Now().UTC().Format(time.RFC3339), level, fmt.Sprintf(format, a...))
	_, werr := f.WriteString(line)
	cerr := f.Close()
	if werr != nil {
		return werr
	}
	return cerr
}

func (l *Log) Info(format string, a ...any) { _ = l.Append("INFO", format, a...) }

func (l *Log) Warn(format string, a ...any) { _ = l.Append("WARN", format, a...) }

func (l *Log) Error(format string, a ...any) { _ = l.Append("ERROR", format, a...) }
