package daemon

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agilex/piper-can/frame"
)

// ClientConfig selects the daemon address to dial.
type ClientConfig struct {
	Network string        // "unixgram" or "udp"
	Addr    string        // path for unixgram, host:port for udp
	Filters []Filter
	Timeout time.Duration // Connect handshake timeout
}

// DefaultClientConfig dials the UDP default the daemon listens on by
// default.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{Network: "udp", Addr: DefaultUDPAddr, Timeout: 2 * time.Second}
}

var ErrConnectTimeout = errors.New("daemon: connect handshake timed out")
var ErrConnectRejected = errors.New("daemon: server rejected connect")

const rxBufSize = 256
const heartbeatInterval = 5 * time.Second

// Client is the library consumer side of the IPC protocol: it owns a
// datagram socket bound to its own local address (unixgram sockets have
// no implicit reply address the way a connected UDP socket does, so the
// client must bind one explicitly for the daemon's replies to reach it),
// a heartbeat goroutine (segmented sleep for fast shutdown, per §5), and
// a small inbound frame buffer that Receive drains in batches of up to
// 100.
type Client struct {
	conn       net.PacketConn
	serverAddr net.Addr
	localPath  string // non-empty only for unixgram, for cleanup on Close
	clientID   uint32
	seq        atomic.Uint32

	rxMu  sync.Mutex
	rxBuf []frame.Frame

	stopCh  chan struct{}
	stopped chan struct{}
}

// Dial opens the datagram socket and performs the Connect/ConnectAck
// handshake, draining any RX frames that arrive mid-handshake so the
// daemon's send buffer is never left wedged on a slow client.
func Dial(cfg ClientConfig) (*Client, error) {
	conn, serverAddr, localPath, err := bind(cfg.Network, cfg.Addr)
	if err != nil {
		return nil, err
	}
	c := &Client{
		conn: conn, serverAddr: serverAddr, localPath: localPath,
		stopCh: make(chan struct{}), stopped: make(chan struct{}),
	}

	req := Connect{ClientID: 0, Filters: cfg.Filters}
	if _, err := conn.WriteTo(req.Encode(), serverAddr); err != nil {
		c.cleanup()
		return nil, err
	}

	deadline := time.Now().Add(cfg.Timeout)
	buf := make([]byte, rxBufSize)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			c.cleanup()
			return nil, ErrConnectTimeout
		}
		conn.SetReadDeadline(time.Now().Add(remaining))
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			c.cleanup()
			return nil, ErrConnectTimeout
		}
		kind, err := PeekKind(buf[:n])
		if err != nil {
			continue
		}
		if kind == KindConnectAck {
			ack, err := DecodeConnectAck(buf[:n])
			if err != nil {
				continue
			}
			if ack.Status != ConnectOK {
				c.cleanup()
				return nil, ErrConnectRejected
			}
			c.clientID = ack.ClientID
			break
		}
		if kind == KindReceiveFrame {
			if m, err := DecodeReceiveFrame(buf[:n]); err == nil {
				c.bufferFrame(m.Frame)
			}
		}
	}

	conn.SetReadDeadline(time.Time{})
	go c.heartbeatLoop()
	go c.recvLoop()
	return c, nil
}

// bind opens a local datagram endpoint and resolves the daemon's address.
// For UDP, net.ListenPacket on an ephemeral port is enough since a UDP
// socket always carries a reply address. For unixgram, the client must
// bind to its own named socket file for the daemon to have anywhere to
// send replies.
func bind(network, addr string) (net.PacketConn, net.Addr, string, error) {
	switch network {
	case "udp":
		conn, err := net.ListenPacket("udp", "127.0.0.1:0")
		if err != nil {
			return nil, nil, "", err
		}
		serverAddr, err := net.ResolveUDPAddr("udp", addr)
		if err != nil {
			conn.Close()
			return nil, nil, "", err
		}
		return conn, serverAddr, "", nil
	case "unixgram":
		localPath := fmt.Sprintf("%s-%d-%p.sock", addr, os.Getpid(), &network)
		removeStaleSocket(localPath)
		conn, err := net.ListenPacket("unixgram", localPath)
		if err != nil {
			return nil, nil, "", err
		}
		serverAddr, err := net.ResolveUnixAddr("unixgram", addr)
		if err != nil {
			conn.Close()
			removeStaleSocket(localPath)
			return nil, nil, "", err
		}
		return conn, serverAddr, localPath, nil
	default:
		return nil, nil, "", fmt.Errorf("daemon: unsupported client network %q", network)
	}
}

func (c *Client) cleanup() {
	c.conn.Close()
	if c.localPath != "" {
		removeStaleSocket(c.localPath)
	}
}

func (c *Client) bufferFrame(f frame.Frame) {
	c.rxMu.Lock()
	c.rxBuf = append(c.rxBuf, f)
	c.rxMu.Unlock()
}

// heartbeatLoop sleeps in short segments so Close returns promptly rather
// than waiting out a full interval, the same shutdown-latency tradeoff
// the engine's TX idle sleep makes at a finer grain.
func (c *Client) heartbeatLoop() {
	const segment = 200 * time.Millisecond
	next := time.Now().Add(heartbeatInterval)
	for {
		select {
		case <-c.stopCh:
			return
		case <-time.After(segment):
		}
		if time.Now().Before(next) {
			continue
		}
		hb := Heartbeat{ClientID: c.clientID}
		c.conn.WriteTo(hb.Encode(), c.serverAddr)
		next = time.Now().Add(heartbeatInterval)
	}
}

func (c *Client) recvLoop() {
	defer close(c.stopped)
	buf := make([]byte, rxBufSize)
	for {
		select {
		case <-c.stopCh:
			return
		default:
		}
		c.conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		n, _, err := c.conn.ReadFrom(buf)
		if err != nil {
			continue
		}
		kind, err := PeekKind(buf[:n])
		if err != nil || kind != KindReceiveFrame {
			continue
		}
		if m, err := DecodeReceiveFrame(buf[:n]); err == nil {
			c.bufferFrame(m.Frame)
		}
	}
}

// Send requests on-bus transmission of f.
func (c *Client) Send(f frame.Frame) error {
	msg := SendFrame{Frame: f, Seq: c.seq.Add(1)}
	_, err := c.conn.WriteTo(msg.Encode(), c.serverAddr)
	return err
}

// maxReceiveBatch bounds how many frames one Receive call drains
// (§4.11: "batches up to 100 messages per call").
const maxReceiveBatch = 100

// Receive returns up to 100 buffered frames in arrival order, draining
// them from the internal buffer.
func (c *Client) Receive() []frame.Frame {
	c.rxMu.Lock()
	defer c.rxMu.Unlock()
	n := len(c.rxBuf)
	if n > maxReceiveBatch {
		n = maxReceiveBatch
	}
	out := make([]frame.Frame, n)
	copy(out, c.rxBuf[:n])
	c.rxBuf = c.rxBuf[n:]
	return out
}

// GetStatus requests and decodes the daemon's current status.
func (c *Client) GetStatus(timeout time.Duration) (StatusResponse, error) {
	if _, err := c.conn.WriteTo(GetStatus{}.Encode(), c.serverAddr); err != nil {
		return StatusResponse{}, err
	}
	c.conn.SetReadDeadline(time.Now().Add(timeout))
	defer c.conn.SetReadDeadline(time.Time{})
	buf := make([]byte, rxBufSize)
	for {
		n, _, err := c.conn.ReadFrom(buf)
		if err != nil {
			return StatusResponse{}, err
		}
		kind, err := PeekKind(buf[:n])
		if err != nil {
			continue
		}
		if kind == KindStatusResponse {
			return DecodeStatusResponse(buf[:n])
		}
		if kind == KindReceiveFrame {
			if m, err := DecodeReceiveFrame(buf[:n]); err == nil {
				c.bufferFrame(m.Frame)
			}
		}
	}
}

// Close disconnects and stops the heartbeat/receive goroutines.
func (c *Client) Close() error {
	close(c.stopCh)
	<-c.stopped
	dc := Disconnect{ClientID: c.clientID}
	c.conn.WriteTo(dc.Encode(), c.serverAddr)
	c.cleanup()
	return nil
}
