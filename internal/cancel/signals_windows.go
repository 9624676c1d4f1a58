//go:build windows

package cancel

import (
	"os"
	"syscall"
)

// On Windows, Ctrl-C and Ctrl-Break both arrive as os.Interrupt; console
// close, logoff and shutdown events arrive as SIGTERM.
func notifySignals() []os.Signal {
	return []os.Signal{os.Interrupt, syscall.SIGTERM}
}
