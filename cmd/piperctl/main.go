// piperctl is a small diagnostic client for piperd: it reports the
// daemon's status and, with -watch, streams fanned-out frames.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/agilex/piper-can/daemon"
)

func mainImpl() error {
	network := flag.String("network", "unixgram", `IPC transport to dial ("unixgram" or "udp")`)
	addr := flag.String("addr", "", "daemon address (socket path for unixgram, host:port for udp; defaults per -network)")
	timeout := flag.Duration("timeout", 2*time.Second, "request timeout")
	watch := flag.Bool("watch", false, "after reporting status, stream fanned-out frames until interrupted")
	flag.Parse()
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}

	cfg := daemon.DefaultClientConfig()
	cfg.Network = *network
	cfg.Timeout = *timeout
	switch *network {
	case "unixgram":
		cfg.Addr = daemon.DefaultSocketPath("piper-can.sock")
	case "udp":
		cfg.Addr = daemon.DefaultUDPAddr
	default:
		return fmt.Errorf("unsupported -network %q", *network)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	c, err := daemon.Dial(cfg)
	if err != nil {
		return fmt.Errorf("connecting to piperd at %s (%s): %w", cfg.Addr, cfg.Network, err)
	}
	defer c.Close()

	status, err := c.GetStatus(*timeout)
	if err != nil {
		return fmt.Errorf("GetStatus: %w", err)
	}
	printStatus(status)

	if !*watch {
		return nil
	}
	fmt.Println("\nstreaming frames, ctrl-C to stop:")
	for {
		for _, f := range c.Receive() {
			fmt.Printf("  %s\n", f.String())
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func printStatus(s daemon.StatusResponse) {
	fmt.Printf("device state:  %s\n", deviceStateName(s.DeviceState))
	fmt.Printf("health score:  %d/100\n", s.HealthScore)
	fmt.Printf("rx rate:       %.3f fps\n", float64(s.RXFPSx1000)/1000)
	fmt.Printf("tx rate:       %.3f fps\n", float64(s.TXFPSx1000)/1000)
	fmt.Printf("ipc rate:      %.3f fps\n", float64(s.IPCFPSx1000)/1000)
	fmt.Printf("rx frames:     %d\n", s.RXFrames)
	fmt.Printf("tx frames:     %d\n", s.TXFrames)
	fmt.Printf("connected clients: %d\n", s.ClientCount)
}

func deviceStateName(code uint8) string {
	switch code {
	case 0:
		return "connected"
	case 1:
		return "disconnected"
	case 2:
		return "reconnecting"
	default:
		return fmt.Sprintf("unknown(%d)", code)
	}
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "piperctl: %s\n", err)
		os.Exit(1)
	}
}
