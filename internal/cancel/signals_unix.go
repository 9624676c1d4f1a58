//go:build !windows

package cancel

import (
	"os"
	"syscall"
)

func notifySignals() []os.Signal {
	return []os.Signal{os.Interrupt, syscall.SIGTERM}
}
