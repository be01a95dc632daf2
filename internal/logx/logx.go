// Package logx centralizes leveled, per-component logging for the daemon.
// It wraps charmbracelet/log rather than the stdlib log package, because
// the pipeline has several concurrent, independently-failing components
// that need to be told apart in a shared log stream at a glance.
package logx

import (
	"os"

	"github.com/charmbracelet/log"
)

// base is the process-wide root logger. Components never log through it
// directly; they call For to get a prefixed child, one prefix per
// component instead of one for the whole process.
var base = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      "15:04:05.000",
})

// SetLevel adjusts the minimum level emitted by every component logger.
func SetLevel(level log.Level) {
	base.SetLevel(level)
}

// For returns a logger scoped to one component, e.g. "scheduler[dev0]" or
// "scripthost[layer:afterglow]".
func For(component string) *log.Logger {
	return base.WithPrefix(component)
}
