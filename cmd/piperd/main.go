// piperd is the long-running daemon that owns the CAN transport and fans
// out robot state to the piperctl client library and any other IPC
// clients.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agilex/piper-can/daemon"
	"github.com/agilex/piper-can/engine"
	"github.com/agilex/piper-can/state"
	"github.com/agilex/piper-can/transport"
	"github.com/agilex/piper-can/transport/transportreg"

	_ "github.com/agilex/piper-can/transport/gsusb"
	_ "github.com/agilex/piper-can/transport/socketcan"
)

func mainImpl() error {
	transportName := flag.String("transport", "socketcan", fmt.Sprintf("CAN transport backend (%v)", transportreg.All()))
	selector := flag.String("selector", "can0", "transport-specific device selector (interface name for socketcan, serial number for gsusb)")
	bitrate := flag.Uint("bitrate", 1_000_000, "CAN bus bit rate in bits/second")
	listenOnly := flag.Bool("listen-only", false, "start the controller without ACKing frames on the bus")
	loopback := flag.Bool("loopback", false, "start the controller in self-loopback mode (testing only)")
	udsPath := flag.String("uds", "", "Unix datagram socket path for IPC (defaults to piper-can.sock in XDG_RUNTIME_DIR, or in the system temp directory)")
	udpAddr := flag.String("udp", "", "UDP address for IPC, e.g. 127.0.0.1:18888 (defaults to 127.0.0.1:18888)")
	clientTimeout := flag.Duration("client-timeout", 30*time.Second, "IPC client idle timeout before reaping")
	verbose := flag.Bool("v", false, "verbose (debug-level) logging")
	flag.Parse()

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	tcfg := transport.DefaultConfig()
	tcfg.Selector = *selector
	tcfg.Bitrate = uint32(*bitrate)
	tcfg.ListenOnly = *listenOnly
	tcfg.Loopback = *loopback

	opener := func(cfg transport.Config) (transport.Device, error) {
		return transportreg.Open(*transportName, cfg)
	}

	store := state.New()
	eng, err := engine.New(engine.DefaultConfig(opener, tcfg), store)
	if err != nil {
		return fmt.Errorf("piperd: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"transport": *transportName,
		"selector":  *selector,
		"bitrate":   *bitrate,
	}).Info("starting engine")
	eng.Start()

	scfg := daemon.DefaultServerConfig()
	if *udsPath != "" {
		scfg.UDSPath = *udsPath
	}
	if *udpAddr != "" {
		scfg.UDPAddr = *udpAddr
	}
	scfg.ClientTimeout = *clientTimeout

	srv := daemon.NewServer(scfg, eng, time.Now())
	logrus.WithFields(logrus.Fields{
		"uds": scfg.UDSPath,
		"udp": scfg.UDPAddr,
	}).Info("starting IPC server")
	if err := srv.Start(); err != nil {
		eng.Stop()
		return fmt.Errorf("piperd: starting IPC server: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	logrus.WithField("signal", sig).Info("shutting down")

	srv.Stop()
	eng.Stop()
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "piperd: %s\n", err)
		os.Exit(1)
	}
}
