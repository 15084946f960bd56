package socketcan

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/agilex/piper-can/transport"
)

// maxInterfaceNameLen is IFNAMSIZ-1: the kernel's ifreq.ifr_name is 16
// bytes including the terminating NUL.
const maxInterfaceNameLen = 15

// CheckInterfaceUp reports whether the named network interface exists and
// is administratively UP (IFF_UP), using only read-only operations
// (if_nametoindex + ioctl(SIOCGIFFLAGS) on a throwaway AF_INET/SOCK_DGRAM
// socket). It never brings the interface up itself: doing so requires
// CAP_NET_ADMIN, which this library does not assume it holds.
func CheckInterfaceUp(name string) (bool, error) {
	if len(name) > maxInterfaceNameLen {
		return false, &transport.Error{Kind: transport.KindDeviceNotFound, Msg: fmt.Sprintf("socketcan: interface name %q too long (max %d)", name, maxInterfaceNameLen)}
	}

	if _, err := unix.IfNameToIndex(name); err != nil {
		return false, &transport.Error{Kind: transport.KindDeviceNotFound, Msg: fmt.Sprintf(
			"socketcan: interface %q does not exist (%v); create it first:\n  sudo ip link add dev %s type can", name, err, name)}
	}

	sockfd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, 0)
	if err != nil {
		return false, &transport.Error{Kind: transport.KindDeviceBackend, Msg: fmt.Sprintf("socketcan: socket: %v", err)}
	}
	defer unix.Close(sockfd)

	ifr, err := unix.NewIfreq(name)
	if err != nil {
		return false, &transport.Error{Kind: transport.KindDeviceNotFound, Msg: fmt.Sprintf("socketcan: invalid interface name %q: %v", name, err)}
	}
	if err := unix.IoctlIfreq(sockfd, unix.SIOCGIFFLAGS, ifr); err != nil {
		return false, &transport.Error{Kind: transport.KindDeviceBackend, Msg: fmt.Sprintf("socketcan: SIOCGIFFLAGS %s: %v", name, err)}
	}

	return ifr.Uint16()&unix.IFF_UP != 0, nil
}
