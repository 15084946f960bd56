package daemon

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/agilex/piper-can/engine"
	"github.com/agilex/piper-can/frame"
	"github.com/agilex/piper-can/protocol"
	"github.com/agilex/piper-can/state"
	"github.com/agilex/piper-can/transport"
	"github.com/agilex/piper-can/transport/transporttest"
)

func newTestEngine(t *testing.T) (*engine.Engine, *transporttest.Loopback) {
	t.Helper()
	lb := transporttest.NewLoopback()
	store := state.New()
	opener := func(transport.Config) (transport.Device, error) { return lb, nil }
	e, err := engine.New(engine.DefaultConfig(opener, transport.DefaultConfig()), store)
	if err != nil {
		t.Fatalf("engine.New(): %v", err)
	}
	e.Start()
	t.Cleanup(e.Stop)
	return e, lb
}

func TestServerClientConnectAndFanOut(t *testing.T) {
	e, lb := newTestEngine(t)

	sockPath := filepath.Join(t.TempDir(), "test.sock")
	srv := NewServer(ServerConfig{UDSPath: sockPath, ClientTimeout: 30 * time.Second}, e, time.Now())
	if err := srv.Start(); err != nil {
		t.Fatalf("Server.Start(): %v", err)
	}
	t.Cleanup(srv.Stop)

	c, err := Dial(ClientConfig{Network: "unixgram", Addr: sockPath, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("Dial(): %v", err)
	}
	defer c.Close()
	if c.clientID == 0 {
		t.Fatal("Dial() should have received a non-zero assigned client id")
	}

	lb.Inject(frame.New(protocol.IDRobotStatus, make([]byte, 8)))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		frames := c.Receive()
		for _, f := range frames {
			if f.ID == protocol.IDRobotStatus {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("client never received the fanned-out frame")
}

func TestServerClientSendFrameReachesBus(t *testing.T) {
	e, lb := newTestEngine(t)

	sockPath := filepath.Join(t.TempDir(), "test2.sock")
	srv := NewServer(ServerConfig{UDSPath: sockPath, ClientTimeout: 30 * time.Second}, e, time.Now())
	if err := srv.Start(); err != nil {
		t.Fatalf("Server.Start(): %v", err)
	}
	t.Cleanup(srv.Stop)

	c, err := Dial(ClientConfig{Network: "unixgram", Addr: sockPath, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("Dial(): %v", err)
	}
	defer c.Close()

	want := frame.New(0x150, []byte{1})
	if err := c.Send(want); err != nil {
		t.Fatalf("Send(): %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, f := range lb.Sent() {
			if f.ID == want.ID {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("SendFrame from client never reached the transport")
}

func TestServerClientGetStatus(t *testing.T) {
	e, _ := newTestEngine(t)

	sockPath := filepath.Join(t.TempDir(), "test3.sock")
	srv := NewServer(ServerConfig{UDSPath: sockPath, ClientTimeout: 30 * time.Second}, e, time.Now())
	if err := srv.Start(); err != nil {
		t.Fatalf("Server.Start(): %v", err)
	}
	t.Cleanup(srv.Stop)

	c, err := Dial(ClientConfig{Network: "unixgram", Addr: sockPath, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("Dial(): %v", err)
	}
	defer c.Close()

	status, err := c.GetStatus(2 * time.Second)
	if err != nil {
		t.Fatalf("GetStatus(): %v", err)
	}
	if status.ClientCount != 1 {
		t.Fatalf("StatusResponse.ClientCount = %d, want 1", status.ClientCount)
	}
}
