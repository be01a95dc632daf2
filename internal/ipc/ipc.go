// Package ipc provides a thin process-liveness surface: a Unix-domain
// control socket answering a handful of text commands ("status",
// "reload", "quit"), announced on the local network via brutella/dnssd
// so a control client can find a running daemon without a hardcoded
// path.
package ipc

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/brutella/dnssd"

	"github.com/poldi1405/eruption/internal/logx"
)

var log = logx.For("ipc")

// ServiceType is the DNS-SD service type this daemon announces.
const ServiceType = "_eruption._tcp"

// StatusFunc reports a short human-readable status line, typically the
// current profile generation and per-device tick counts.
type StatusFunc func() string

// Server is the minimal control endpoint: a Unix-domain socket accepting
// newline-terminated "status" / "reload" / "quit" commands.
type Server struct {
	listener net.Listener
	status   StatusFunc
	reload   func()
	shutdown func()
}

// Listen creates the control socket at socketPath, removing any stale
// socket file left behind by an unclean previous exit.
func Listen(socketPath string, status StatusFunc, reload func(), shutdown func()) (*Server, error) {
	_ = os.Remove(socketPath)

	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("ipc: listen %s: %w", socketPath, err)
	}

	return &Server{listener: ln, status: status, reload: reload, shutdown: shutdown}, nil
}

// Serve accepts connections until the listener is closed, handling one
// command per connection.
func (s *Server) Serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		return
	}
	cmd := strings.TrimSpace(scanner.Text())

	switch cmd {
	case "status":
		fmt.Fprintln(conn, s.status())
	case "reload":
		s.reload()
		fmt.Fprintln(conn, "ok")
	case "quit":
		fmt.Fprintln(conn, "ok")
		go s.shutdown()
	default:
		fmt.Fprintf(conn, "unknown command %q\n", cmd)
	}
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	return s.listener.Close()
}

// Announce advertises the control socket via mDNS/DNS-SD so a client
// tool on the same network can discover this daemon without a hardcoded
// address. It deliberately only advertises liveness, not the
// scripting/profile surface itself.
func Announce(ctx context.Context, name string, port int) error {
	cfg := dnssd.Config{
		Name: name,
		Type: ServiceType,
		Port: port,
	}

	svc, err := dnssd.NewService(cfg)
	if err != nil {
		return fmt.Errorf("ipc: create dnssd service: %w", err)
	}

	responder, err := dnssd.NewResponder()
	if err != nil {
		return fmt.Errorf("ipc: create dnssd responder: %w", err)
	}

	if _, err := responder.Add(svc); err != nil {
		return fmt.Errorf("ipc: add dnssd service: %w", err)
	}

	go func() {
		if err := responder.Respond(ctx); err != nil {
			log.Warn("dnssd responder stopped", "err", err)
		}
	}()

	log.Info("announcing via dnssd", "name", name, "type", ServiceType, "port", port)
	return nil
}
