// Package daemonmode runs the orchestrator repeatedly on a fixed interval,
// adapted from the interval-gated scanner (mutex-guarded lastScanTime,
// atomic re-entrancy guard) this tool's ambient stack is built on, plus a
// systemd readiness/watchdog notifier between passes.
package daemonmode

import (
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/osiriscare/vpnsentry/internal/config"
	"github.com/osiriscare/vpnsentry/internal/model"
)

const defaultIntervalSecs = 300

// Run invokes pass() once immediately, then again every
// daemon_interval_secs, until SIGINT or SIGTERM. A single atomic guard
// keeps a slow pass from overlapping the next tick.
func Run(cfg config.Configuration, pass func() *model.AuditReport) {
	interval := time.Duration(cfg.DaemonIntervalSecs) * time.Second
	if interval <= 0 {
		interval = defaultIntervalSecs * time.Second
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var running atomic.Bool
	notifyReady()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	runPass(&running, pass)

	for {
		select {
		case <-ticker.C:
			notifyWatchdog()
			runPass(&running, pass)
		case sig := <-sigCh:
			log.Printf("[daemon] received %s, shutting down", sig)
			return
		}
	}
}

func runPass(running *atomic.Bool, pass func() *model.AuditReport) {
	if !running.CompareAndSwap(false, true) {
		log.Printf("[daemon] previous pass still running, skipping this tick")
		return
	}
	defer running.Store(false)
	pass()
}
