// Package remoteaudit runs the same audit against a fleet of remote Unix
// hosts over SSH, adapted from the connection-caching SSH executor this
// tool's ambient stack is built on: a bounded LRU of live connections
// rather than one dial per host per run.
package remoteaudit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/osiriscare/vpnsentry/internal/config"
	"github.com/osiriscare/vpnsentry/internal/model"
)

const (
	maxCachedConns = 16
	connMaxAge     = 5 * time.Minute
	dialTimeout    = 10 * time.Second
	runTimeout     = 60 * time.Second
)

type cachedConn struct {
	client    *ssh.Client
	openedAt  time.Time
}

// Executor holds a bounded LRU cache of live SSH connections, keyed by
// "user@host:port".
type Executor struct {
	mu        sync.Mutex
	conns     map[string]*cachedConn
	connOrder []string
}

func NewExecutor() *Executor {
	return &Executor{conns: make(map[string]*cachedConn)}
}

// AuditFleet runs "vpnsentry -json" on every configured remote host and
// decodes its reported AuditReport. Hosts that fail to connect or whose
// remote binary fails are logged and omitted from the returned map rather
// than aborting the whole fleet pass.
func AuditFleet(cfg config.Configuration) map[string]*model.AuditReport {
	exec := NewExecutor()
	defer exec.CloseAll()

	out := make(map[string]*model.AuditReport, len(cfg.RemoteHosts))
	for _, h := range cfg.RemoteHosts {
		report, err := exec.runRemote(h)
		if err != nil {
			log.Printf("[remoteaudit] %s: %v", h.Hostname, err)
			continue
		}
		out[h.Hostname] = report
	}
	return out
}

func (e *Executor) runRemote(host config.RemoteHost) (*model.AuditReport, error) {
	client, err := e.connection(host)
	if err != nil {
		return nil, fmt.Errorf("connecting: %w", err)
	}

	session, err := client.NewSession()
	if err != nil {
		e.invalidate(key(host))
		return nil, fmt.Errorf("opening session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- session.Run("vpnsentry -json -remote-only=false") }()

	select {
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("remote audit failed: %w (stderr: %s)", err, stderr.String())
		}
	case <-time.After(runTimeout):
		return nil, fmt.Errorf("remote audit timed out after %s", runTimeout)
	}

	var report model.AuditReport
	if err := json.Unmarshal(stdout.Bytes(), &report); err != nil {
		return nil, fmt.Errorf("decoding remote report: %w", err)
	}
	return &report, nil
}

func key(host config.RemoteHost) string {
	return fmt.Sprintf("%s@%s:%d", host.Username, host.Hostname, host.Port)
}

func (e *Executor) connection(host config.RemoteHost) (*ssh.Client, error) {
	k := key(host)

	e.mu.Lock()
	if c, ok := e.conns[k]; ok && time.Since(c.openedAt) < connMaxAge {
		e.removeFromOrder(k)
		e.connOrder = append(e.connOrder, k)
		e.mu.Unlock()
		return c.client, nil
	}
	e.mu.Unlock()

	auth, err := authMethod(host)
	if err != nil {
		return nil, err
	}

	clientConfig := &ssh.ClientConfig{
		User:            host.Username,
		Auth:            []ssh.AuthMethod{auth},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), // TOFU is out of scope for this supplement
		Timeout:         dialTimeout,
	}
	addr := fmt.Sprintf("%s:%d", host.Hostname, portOrDefault(host.Port))
	client, err := ssh.Dial("tcp", addr, clientConfig)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.store(k, client)
	e.mu.Unlock()
	return client, nil
}

func authMethod(host config.RemoteHost) (ssh.AuthMethod, error) {
	if host.PrivateKeyPath != "" {
		key, err := os.ReadFile(host.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("reading private key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("parsing private key: %w", err)
		}
		return ssh.PublicKeys(signer), nil
	}
	if host.Password != nil {
		return ssh.Password(*host.Password), nil
	}
	return nil, fmt.Errorf("no authentication method configured for %s", host.Hostname)
}

func portOrDefault(port int) int {
	if port == 0 {
		return 22
	}
	return port
}

// store evicts the least-recently-used connection when the cache is full.
// Caller must hold e.mu.
func (e *Executor) store(k string, client *ssh.Client) {
	if existing, ok := e.conns[k]; ok {
		existing.client.Close()
		e.removeFromOrder(k)
	} else if len(e.connOrder) >= maxCachedConns {
		oldest := e.connOrder[0]
		e.connOrder = e.connOrder[1:]
		if c, ok := e.conns[oldest]; ok {
			c.client.Close()
			delete(e.conns, oldest)
		}
	}
	e.conns[k] = &cachedConn{client: client, openedAt: time.Now()}
	e.connOrder = append(e.connOrder, k)
}

func (e *Executor) invalidate(k string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if c, ok := e.conns[k]; ok {
		c.client.Close()
		delete(e.conns, k)
	}
	e.removeFromOrder(k)
}

// removeFromOrder drops k from connOrder. Caller must hold e.mu.
func (e *Executor) removeFromOrder(k string) {
	for i, o := range e.connOrder {
		if o == k {
			e.connOrder = append(e.connOrder[:i], e.connOrder[i+1:]...)
			return
		}
	}
}

func (e *Executor) CloseAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, c := range e.conns {
		c.client.Close()
	}
	e.conns = make(map[string]*cachedConn)
	e.connOrder = nil
}
