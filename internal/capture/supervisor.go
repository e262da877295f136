package capture

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
	"github.com/osiriscare/vpnsentry/internal/model"
)

const (
	snapLen       = 65535
	readTimeout   = 500 * time.Millisecond
	bufferSize    = 2 * 1024 * 1024
)

type messageKind int

const (
	msgTick messageKind = iota
	msgLeak
	msgError
)

type workerMessage struct {
	kind  messageKind
	leak  model.LeakEvent
	err   model.Finding
}

// Run opens a capture handle on each configured physical interface that
// exists, applies filterExpr, and spawns one worker per handle. Workers
// poll shutdown before each blocking read and on every channel-send
// failure, so each exits within roughly one read-timeout window of shutdown
// being set. Run does not set shutdown itself: it drains the channel until
// every worker has exited, which happens once the caller sets shutdown or
// a worker's packet source closes.
func Run(interfaceNames []string, filterExpr string, shutdown *atomic.Bool) model.TrafficMonitorResult {
	var result model.TrafficMonitorResult

	var wg sync.WaitGroup
	msgs := make(chan workerMessage, 256)

	opened := 0
	for _, name := range interfaceNames {
		handle, err := openHandle(name, filterExpr)
		if err != nil {
			result.Findings = append(result.Findings, model.NewFinding(model.Warning,
				fmt.Sprintf("capture: %s: %v", name, err)))
			continue
		}
		opened++
		wg.Add(1)
		go worker(name, handle, msgs, shutdown, &wg)
	}

	if opened == 0 {
		result.Incomplete = true
		result.Findings = append(result.Findings, model.NewFinding(model.Warning,
			"capture did not complete: no interfaces opened"))
		return result
	}

	go func() {
		wg.Wait()
		close(msgs)
	}()

	for m := range msgs {
		switch m.kind {
		case msgTick:
			result.PacketsProcessed++
		case msgLeak:
			result.DetectedLeaks = append(result.DetectedLeaks, m.leak)
		case msgError:
			result.Findings = append(result.Findings, m.err)
		}
	}

	return result
}

func openHandle(name, filterExpr string) (*pcap.Handle, error) {
	inactive, err := pcap.NewInactiveHandle(name)
	if err != nil {
		return nil, fmt.Errorf("opening inactive handle: %w", err)
	}
	defer inactive.CleanUp()

	if err := inactive.SetSnapLen(snapLen); err != nil {
		return nil, fmt.Errorf("set snaplen: %w", err)
	}
	if err := inactive.SetPromisc(true); err != nil {
		return nil, fmt.Errorf("set promisc: %w", err)
	}
	if err := inactive.SetTimeout(readTimeout); err != nil {
		return nil, fmt.Errorf("set timeout: %w", err)
	}
	if err := inactive.SetImmediateMode(true); err != nil {
		log.Printf("[capture] %s: immediate mode not supported: %v", name, err)
	}
	if err := inactive.SetBufferSize(bufferSize); err != nil {
		log.Printf("[capture] %s: could not set buffer size: %v", name, err)
	}

	handle, err := inactive.Activate()
	if err != nil {
		return nil, fmt.Errorf("activate: %w", err)
	}

	if filterExpr != "" {
		if err := handle.SetBPFFilter(filterExpr); err != nil {
			handle.Close()
			return nil, fmt.Errorf("compiling filter: %w", err)
		}
	}

	return handle, nil
}

func worker(name string, handle *pcap.Handle, msgs chan<- workerMessage, shutdown *atomic.Bool, wg *sync.WaitGroup) {
	defer wg.Done()
	defer handle.Close()

	source := gopacket.NewPacketSource(handle, handle.LinkType())
	packets := source.Packets()

	for {
		if shutdown.Load() {
			return
		}
		select {
		case pkt, ok := <-packets:
			if !ok {
				return
			}
			if !send(msgs, workerMessage{kind: msgTick}, shutdown) {
				return
			}
			event, ok := parsePacket(pkt, name)
			if !ok {
				continue
			}
			if !send(msgs, workerMessage{kind: msgLeak, leak: event}, shutdown) {
				return
			}
		case <-time.After(readTimeout):
			continue
		}
	}
}

// send attempts a non-blocking-aware send; on a would-block condition it
// rechecks shutdown so a worker never lingers past the flag's rising edge
// waiting on a consumer that has already gone away.
func send(msgs chan<- workerMessage, m workerMessage, shutdown *atomic.Bool) bool {
	select {
	case msgs <- m:
		return true
	default:
	}
	if shutdown.Load() {
		return false
	}
	select {
	case msgs <- m:
		return true
	case <-time.After(readTimeout):
		return !shutdown.Load()
	}
}
