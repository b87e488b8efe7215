package transport

import (
	"net"
	"os"

	"github.com/pkg/errors"
)

// ListenUnix opens a unix socket at socketPath for serving the HTTP router
// to local sidecars. A stale socket file is removed first.
func ListenUnix(socketPath string) (net.Listener, error) {
	if _, err := os.Stat(socketPath); err == nil {
		if err := os.Remove(socketPath); err != nil {
			return nil, errors.Wrap(err, "remove stale socket")
		}
	}
	l, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, errors.Wrapf(err, "listen on %q", socketPath)
	}
	if err := os.Chmod(socketPath, 0o660); err != nil {
		l.Close()
		return nil, errors.Wrap(err, "chmod socket")
	}
	return l, nil
}
