package daemonmode

import (
	"log"
	"net"
	"os"
)

// notifyReady and notifyWatchdog speak the systemd sd_notify datagram
// protocol directly against $NOTIFY_SOCKET, the same minimal
// no-cgo-dependency approach the ambient daemon tooling this package is
// adapted from uses. Both are no-ops when NOTIFY_SOCKET is unset (i.e.
// when not run under systemd).
func notifyReady() {
	sdNotify("READY=1")
}

func notifyWatchdog() {
	sdNotify("WATCHDOG=1")
}

func sdNotify(state string) {
	addr := os.Getenv("NOTIFY_SOCKET")
	if addr == "" {
		return
	}
	conn, err := net.Dial("unixgram", addr)
	if err != nil {
		log.Printf("[daemon] sd_notify dial failed: %v", err)
		return
	}
	defer conn.Close()
	if _, err := conn.Write([]byte(state)); err != nil {
		log.Printf("[daemon] sd_notify write failed: %v", err)
	}
}
