package session

import (
	"bufio"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/teamspeak-mcp/tsmcp/pkg/config"
)

// queryServer is a scripted ServerQuery endpoint on the loopback interface.
// It counts received commands and can simulate outages: dropConns kills the
// live sessions, shutdown additionally stops accepting, and restart
// re-listens on the same address.
type queryServer struct {
	t    *testing.T
	addr string

	mu       sync.Mutex
	listener net.Listener
	conns    []net.Conn
	counts   map[string]int
	script   map[string]string
}

func newQueryServer(t *testing.T) *queryServer {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &queryServer{
		t:        t,
		addr:     listener.Addr().String(),
		listener: listener,
		counts:   make(map[string]int),
		script:   make(map[string]string),
	}
	t.Cleanup(s.shutdown)
	go s.serve(listener)

	return s
}

// respond scripts the full response (body lines + status line, "\n"
// separated) for a command name.
func (s *queryServer) respond(command, response string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.script[command] = response
}

func (s *queryServer) count(command string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[command]
}

// dropConns closes every live session, leaving the listener up.
func (s *queryServer) dropConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.conns {
		conn.Close()
	}
	s.conns = nil
}

// shutdown closes the listener and every live session. Idempotent.
func (s *queryServer) shutdown() {
	s.mu.Lock()
	listener := s.listener
	s.listener = nil
	s.mu.Unlock()

	if listener != nil {
		listener.Close()
	}
	s.dropConns()
}

// restart re-listens on the original address after a shutdown.
func (s *queryServer) restart() {
	s.t.Helper()

	listener, err := net.Listen("tcp", s.addr)
	require.NoError(s.t, err)

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go s.serve(listener)
}

func (s *queryServer) serve(listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, conn)
		s.mu.Unlock()
		go s.handle(conn)
	}
}

func (s *queryServer) handle(conn net.Conn) {
	defer conn.Close()

	greeting := "TS3\n\rWelcome to the TeamSpeak 3 ServerQuery interface\n\r"
	if _, err := conn.Write([]byte(greeting)); err != nil {
		return
	}

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		name, _, _ := strings.Cut(strings.TrimSpace(line), " ")

		s.mu.Lock()
		s.counts[name]++
		response, ok := s.script[name]
		s.mu.Unlock()

		if !ok {
			response = "error id=0 msg=ok"
		}
		for _, respLine := range strings.Split(response, "\n") {
			if _, err := conn.Write([]byte(respLine + "\n\r")); err != nil {
				return
			}
		}
	}
}

// newTestManager builds a manager targeting the given loopback address.
func newTestManager(t *testing.T, addr, secret string, monCfg config.MonitorConfig) *Manager {
	t.Helper()

	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	cfg := config.SessionConfig{
		Host:            host,
		Port:            port,
		Username:        "serveradmin",
		Secret:          secret,
		VirtualServerID: 1,
	}
	return NewManager(cfg, monCfg)
}

// quietMonitorConfig keeps the monitor effectively idle so tests exercise
// the manager alone.
func quietMonitorConfig() config.MonitorConfig {
	cfg := config.DefaultMonitorConfig()
	cfg.Interval = time.Hour
	return cfg
}
