// Package logging configures apex/log for the command line entry points.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
)

// LevelEnv names the environment variable holding the default log level.
const LevelEnv = "MEMODEMO_LOG"

// DefaultLevel is used when neither a flag nor LevelEnv sets a level.
const DefaultLevel = "error"

// Level returns the level from LevelEnv, or DefaultLevel when it is unset.
func Level() string {
	if level := strings.TrimSpace(os.Getenv(LevelEnv)); level != "" {
		return strings.ToLower(level)
	}
	return DefaultLevel
}

// Init routes the global apex logger to w at the given level. Demo output
// goes to stdout, so w is normally stderr.
func Init(w io.Writer, level string) error {
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	log.SetHandler(NewHandler(w))
	log.SetLevel(lvl)
	return nil
}

// Handler writes "timestamp level message key=value..." lines.
type Handler struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewHandler returns a Handler writing to w.
func NewHandler(w io.Writer) *Handler {
	return &Handler{w: w, now: time.Now}
}

// HandleLog implements log.Handler.
func (h *Handler) HandleLog(e *log.Entry) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %.1s %s", h.now().Format("2006-01-02 15:04:05"), strings.ToUpper(e.Level.String()), e.Message)
	for _, f := range e.Fields.Names() {
		fmt.Fprintf(&b, " %s=%v", f, e.Fields.Get(f))
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}
