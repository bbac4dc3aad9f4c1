// Package pool manages reusable TCP/TLS sockets to cluster nodes, keyed by
// (host, port). One Pool instance serves one node; the node client pops a
// socket for each info request and returns it afterward.
package pool

import (
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/aerocluster/asadm/pkg/util"
)

const (
	defaultConnectTimeout = 3 * time.Second
	defaultReadTimeout    = 5 * time.Second
)

// Socket is a pooled connection plus the read deadline discipline callers
// are expected to apply before every read.
type Socket struct {
	net.Conn
	readTimeout time.Duration
}

// ArmReadDeadline sets the socket's read and write deadline to now plus
// the pool's configured read timeout.
func (s *Socket) ArmReadDeadline() error {
	return s.Conn.SetDeadline(time.Now().Add(s.readTimeout))
}

// Config controls how a Pool dials new sockets.
type Config struct {
	Host           string
	Port           int
	TLSName        string // non-empty engages TLS with this server name
	TLSConfig      *tls.Config
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// Pool is a FIFO set of live sockets for one (host, port). Safe for
// concurrent use; the mutex protects only the queue, never I/O on an
// acquired socket.
type Pool struct {
	cfg Config
	mu  sync.Mutex
	idle []*Socket
	closed bool
}

// New returns a Pool for cfg. Zero timeouts fall back to the package
// defaults (connect 3s, read 5s — spec default).
func New(cfg Config) *Pool {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	return &Pool{cfg: cfg}
}

// Acquire returns a live socket: a pooled one that still passes a
// non-blocking probe, or a freshly dialed one. Never returns nil without
// an error.
func (p *Pool) Acquire() (*Socket, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: pool closed", util.ErrUnreachable)
	}
	for len(p.idle) > 0 {
		s := p.idle[0]
		p.idle = p.idle[1:]
		p.mu.Unlock()

		if probe(s) {
			return s, nil
		}
		s.Conn.Close()

		p.mu.Lock()
	}
	p.mu.Unlock()

	return p.dial()
}

// Release returns s to the idle queue. healthy must be false on any prior
// I/O error — an unhealthy socket is closed instead of recycled.
func (p *Pool) Release(s *Socket, healthy bool) {
	if s == nil {
		return
	}
	if !healthy {
		s.Conn.Close()
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		s.Conn.Close()
		return
	}
	p.idle = append(p.idle, s)
}

// CloseAll drains and closes every idle socket. Idempotent.
func (p *Pool) CloseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.idle {
		s.Conn.Close()
	}
	p.idle = nil
	p.closed = true
}

// Len reports the number of currently idle (pooled, not acquired) sockets.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}

func (p *Pool) dial() (*Socket, error) {
	addr := net.JoinHostPort(p.cfg.Host, fmt.Sprintf("%d", p.cfg.Port))

	dialer := net.Dialer{Timeout: p.cfg.ConnectTimeout}

	var conn net.Conn
	var err error
	if p.cfg.TLSName != "" {
		tlsCfg := p.cfg.TLSConfig
		if tlsCfg == nil {
			tlsCfg = &tls.Config{}
		}
		tlsCfg = tlsCfg.Clone()
		tlsCfg.ServerName = p.cfg.TLSName
		conn, err = tls.DialWithDialer(&dialer, "tcp", addr, tlsCfg)
	} else {
		conn, err = dialer.Dial("tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: dialing %s: %v", util.ErrUnreachable, addr, err)
	}

	return &Socket{Conn: conn, readTimeout: p.cfg.ReadTimeout}, nil
}

// probe performs a one-byte read with a 1ms deadline to check that a
// pooled socket is still live. Only a read that times out counts as live;
// io.EOF from a peer-closed connection, any other error, unread data, or
// a (0, nil) read are all treated as dead.
func probe(s *Socket) bool {
	if err := s.Conn.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return false
	}
	defer s.Conn.SetReadDeadline(time.Time{})

	one := make([]byte, 1)
	n, err := s.Conn.Read(one)
	if n > 0 {
		// Unexpected unread data means the socket is in an unknown state —
		// treat as dead rather than risk desyncing the next request.
		return false
	}
	if err == nil {
		return false
	}
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
