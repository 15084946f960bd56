package daemon

import (
	"net"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agilex/piper-can/engine"
	"github.com/agilex/piper-can/frame"
)

// ServerConfig selects which transports to bind and the cleanup cadence.
type ServerConfig struct {
	UDSPath       string // empty disables UDS
	UDPAddr       string // empty disables UDP
	ClientTimeout time.Duration
}

// DefaultServerConfig binds both transports at their documented defaults
//.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		UDSPath:       DefaultSocketPath("piper-can.sock"),
		UDPAddr:       DefaultUDPAddr,
		ClientTimeout: 30 * time.Second,
	}
}

// Server owns the shared engine and fans received frames out to every
// client whose filter accepts them. One IPC-receive
// goroutine runs per bound transport, plus a client-cleanup goroutine.
type Server struct {
	cfg    ServerConfig
	engine *engine.Engine

	clients  *clientManager
	baseline *Baseline
	counters Counters

	conns   []net.PacketConn
	wg      sync.WaitGroup
	closeCh chan struct{}
}

// NewServer wires a Server to an already-constructed engine; the caller
// remains responsible for engine.Start()/Stop().
func NewServer(cfg ServerConfig, e *engine.Engine, now time.Time) *Server {
	return &Server{
		cfg:      cfg,
		engine:   e,
		clients:  newClientManager(),
		baseline: NewBaseline(now),
		closeCh:  make(chan struct{}),
	}
}

// Start binds the configured transports, installs an RX hook that fans
// bus frames out to clients, and launches the IPC-receive and cleanup
// goroutines.
func (s *Server) Start() error {
	if s.cfg.UDSPath != "" {
		if err := removeStaleSocket(s.cfg.UDSPath); err != nil {
			return err
		}
		conn, err := net.ListenPacket("unixgram", s.cfg.UDSPath)
		if err != nil {
			return err
		}
		s.conns = append(s.conns, conn)
	}
	if s.cfg.UDPAddr != "" {
		conn, err := net.ListenPacket("udp", s.cfg.UDPAddr)
		if err != nil {
			s.closeConns()
			return err
		}
		s.conns = append(s.conns, conn)
	}

	s.engine.RegisterRXHook(s.fanOut)

	for _, c := range s.conns {
		s.wg.Add(1)
		go s.recvLoop(c)
	}
	s.wg.Add(1)
	go s.cleanupLoop()

	return nil
}

// Stop closes every bound transport and the UDS socket file, then waits
// for the IPC goroutines to exit.
func (s *Server) Stop() {
	close(s.closeCh)
	s.closeConns()
	s.wg.Wait()
	if s.cfg.UDSPath != "" {
		removeStaleSocket(s.cfg.UDSPath)
	}
}

func (s *Server) closeConns() {
	for _, c := range s.conns {
		c.Close()
	}
}

const ipcRecvBufSize = 512

func (s *Server) recvLoop(conn net.PacketConn) {
	defer s.wg.Done()
	buf := make([]byte, ipcRecvBufSize)
	for {
		conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		n, addr, err := conn.ReadFrom(buf)
		select {
		case <-s.closeCh:
			return
		default:
		}
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			logrus.Warnf("daemon: ipc receive error: %v", err)
			continue
		}
		s.engine.Store().IPCFPS.Record()
		s.dispatch(conn, addr, append([]byte(nil), buf[:n]...))
	}
}

func (s *Server) dispatch(conn net.PacketConn, addr net.Addr, b []byte) {
	kind, err := PeekKind(b)
	if err != nil {
		return
	}
	switch kind {
	case KindConnect:
		s.handleConnect(conn, addr, b)
	case KindHeartbeat:
		if m, err := DecodeHeartbeat(b); err == nil {
			if c, ok := s.clients.get(m.ClientID); ok {
				c.touch(time.Now())
			}
		}
	case KindDisconnect:
		if m, err := DecodeDisconnect(b); err == nil {
			s.clients.unregister(m.ClientID)
		}
	case KindSendFrame:
		s.handleSendFrame(b)
	case KindSetFilter:
		s.handleSetFilter(b)
	case KindGetStatus:
		s.handleGetStatus(conn, addr)
	default:
		logrus.Debugf("daemon: ignoring unexpected message kind %d from %s", kind, addr)
	}
}

func (s *Server) handleConnect(conn net.PacketConn, addr net.Addr, b []byte) {
	m, err := DecodeConnect(b)
	if err != nil {
		s.sendError(conn, addr, ErrInvalidFilter, err.Error())
		return
	}
	if m.ClientID != 0 {
		if _, exists := s.clients.get(m.ClientID); exists {
			s.sendError(conn, addr, ErrClientExists, "client id already registered")
			return
		}
	}
	c := s.clients.register(m.ClientID, addr, m.Filters, time.Now())
	ack := ConnectAck{ClientID: c.id, Status: ConnectOK}
	conn.WriteTo(ack.Encode(), addr)
	logrus.Infof("daemon: client %d connected from %s", c.id, addr)
}

func (s *Server) handleSendFrame(b []byte) {
	m, err := DecodeSendFrame(b)
	if err != nil {
		return
	}
	if err := s.engine.SendReliable(m.Frame); err != nil {
		logrus.Warnf("daemon: SendFrame from client dropped: %v", err)
	}
}

func (s *Server) handleSetFilter(b []byte) {
	m, err := DecodeSetFilter(b)
	if err != nil {
		return
	}
	if c, ok := s.clients.get(m.ClientID); ok {
		c.setFilters(m.Filters)
	}
}

var deviceStateCode = map[string]uint8{
	"connected": 0, "disconnected": 1, "reconnecting": 2,
}

func (s *Server) handleGetStatus(conn net.PacketConn, addr net.Addr) {
	now := time.Now()
	store := s.engine.Store()
	rxFPS := float64(store.RXFPS.Sample(now)) / 1000
	txFPS := float64(store.TXFPS.Sample(now)) / 1000
	ipcFPS := store.IPCFPS.Sample(now)
	s.baseline.Update(now, rxFPS, txFPS)

	resp := StatusResponse{
		DeviceState: deviceStateCode[s.engine.SupervisorState()],
		RXFPSx1000:  uint32(store.RXFPS.FPSX1000()),
		TXFPSx1000:  uint32(store.TXFPS.FPSX1000()),
		IPCFPSx1000: uint32(ipcFPS),
		HealthScore: Score(&s.counters, s.baseline, rxFPS, txFPS),
		RXFrames:    s.engine.RXFrames(),
		TXFrames:    s.engine.TXFrames(),
		ClientCount: uint16(s.clients.count()),
	}
	conn.WriteTo(resp.Encode(), addr)
}

func (s *Server) sendError(conn net.PacketConn, addr net.Addr, code ErrorCode, msg string) {
	conn.WriteTo(ErrorMessage{Code: code, Msg: msg}.Encode(), addr)
}

// fanOut is registered as the engine's RX hook: it runs on the RX
// goroutine, so it must stay allocation-light and non-blocking per
// §4.8 step 3 — the per-client send happens on whichever bound
// conn the client originally connected through.
func (s *Server) fanOut(f frame.Frame) {
	msg := ReceiveFrame{Frame: f}.Encode()
	for _, c := range s.clients.snapshot() {
		if !c.accepts(f.ID) {
			continue
		}
		c.nextFanoutSeq()
		if c.shouldSkip() {
			continue
		}
		s.deliverTo(c, msg)
	}
}

func (s *Server) deliverTo(c *client, msg []byte) {
	conn := s.connFor(c.addr)
	if conn == nil {
		return
	}
	if _, err := conn.WriteTo(msg, c.addr); err != nil {
		unregister, logNow := c.recordSendFailure()
		if logNow {
			logrus.Warnf("daemon: drop delivering to client %d: %v", c.id, err)
		}
		if unregister || isClientGone(err) {
			s.clients.unregister(c.id)
			logrus.Warnf("daemon: unregistered client %d after repeated delivery failure", c.id)
		}
		return
	}
	c.recordSendOK()
}

// connFor picks the bound conn matching addr's network family; with at
// most two bound transports a linear scan is simpler than a map.
func (s *Server) connFor(addr net.Addr) net.PacketConn {
	for _, c := range s.conns {
		if c.LocalAddr().Network() == addr.Network() {
			return c
		}
	}
	if len(s.conns) > 0 {
		return s.conns[0]
	}
	return nil
}

func isClientGone(err error) bool {
	msg := err.Error()
	for _, sub := range [...]string{"connection refused", "no such file or directory", "broken pipe"} {
		if strings.Contains(msg, sub) {
			return true
		}
	}
	return false
}

func (s *Server) cleanupLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-s.closeCh:
			return
		case now := <-ticker.C:
			for _, id := range s.clients.reapIdle(now, s.cfg.ClientTimeout) {
				logrus.Infof("daemon: reaped idle client %d", id)
			}
		}
	}
}
