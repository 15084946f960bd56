package engine

import (
	"testing"
	"time"

	"github.com/agilex/piper-can/frame"
	"github.com/agilex/piper-can/protocol"
	"github.com/agilex/piper-can/state"
	"github.com/agilex/piper-can/transport"
	"github.com/agilex/piper-can/transport/transporttest"
)

func loopbackOpener(lb *transporttest.Loopback) transport.Opener {
	return func(transport.Config) (transport.Device, error) { return lb, nil }
}

func TestEngineDispatchesReceivedFramesIntoStore(t *testing.T) {
	lb := transporttest.NewLoopback()
	store := state.New()
	e, err := New(DefaultConfig(loopbackOpener(lb), transport.DefaultConfig()), store)
	if err != nil {
		t.Fatalf("New(): %v", err)
	}
	e.Start()
	defer e.Stop()

	status := protocol.RobotStatus{ControlMode: protocol.ControlModeCAN}
	lb.Inject(status.ToFrame())

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if got := store.RobotStatus.Load(); got != nil {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("robot status never reached the store within the deadline")
}

func TestEngineSendReliableReachesTransport(t *testing.T) {
	lb := transporttest.NewLoopback()
	store := state.New()
	e, err := New(DefaultConfig(loopbackOpener(lb), transport.DefaultConfig()), store)
	if err != nil {
		t.Fatalf("New(): %v", err)
	}
	e.Start()
	defer e.Stop()

	cmd := protocol.EmergencyStop{State: protocol.EmergencyStopRelease}
	if err := e.SendReliable(cmd.ToFrame()); err != nil {
		t.Fatalf("SendReliable(): %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		for _, f := range lb.Sent() {
			if f.ID == cmd.ToFrame().ID {
				return
			}
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("reliable frame never reached the transport within the deadline")
}

func TestEngineSendRealtimeReachesTransport(t *testing.T) {
	lb := transporttest.NewLoopback()
	store := state.New()
	e, err := New(DefaultConfig(loopbackOpener(lb), transport.DefaultConfig()), store)
	if err != nil {
		t.Fatalf("New(): %v", err)
	}
	e.Start()
	defer e.Stop()

	want := frame.New(protocol.IDJointTarget12, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	e.SendRealtime(RealtimePackage{want})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		for _, f := range lb.Sent() {
			if f.ID == want.ID {
				return
			}
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("realtime package never reached the transport within the deadline")
}

func TestEngineHooksObserveTraffic(t *testing.T) {
	lb := transporttest.NewLoopback()
	store := state.New()
	e, err := New(DefaultConfig(loopbackOpener(lb), transport.DefaultConfig()), store)
	if err != nil {
		t.Fatalf("New(): %v", err)
	}

	seen := make(chan frame.Frame, 1)
	e.RegisterRXHook(func(f frame.Frame) {
		select {
		case seen <- f:
		default:
		}
	})
	e.Start()
	defer e.Stop()

	lb.Inject(frame.New(0x2A1, make([]byte, 8)))

	select {
	case f := <-seen:
		if f.ID != 0x2A1 {
			t.Fatalf("hook saw id %#x, want 0x2A1", f.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("RX hook was never invoked")
	}
}
