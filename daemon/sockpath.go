package daemon

import (
	"os"
	"path/filepath"
)

// DefaultSocketPath resolves the UDS path for name the way
// get_temp_socket_path does: prefer $XDG_RUNTIME_DIR (present on most
// systemd-managed Linux sessions, already private to the user and
// cleaned up on logout), fall back to the OS temp directory otherwise.
func DefaultSocketPath(name string) string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err == nil {
			return filepath.Join(dir, name)
		}
	}
	return filepath.Join(os.TempDir(), name)
}

// DefaultUDPAddr is §6.2's documented UDP fallback.
const DefaultUDPAddr = "127.0.0.1:18888"

// removeStaleSocket deletes a leftover socket file from an unclean
// previous shutdown before binding; ENOENT is not an error here.
func removeStaleSocket(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
