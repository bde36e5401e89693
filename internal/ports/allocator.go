// Package ports finds a free TCP port for goals that start a server process.
package ports

import (
	"errors"
	"fmt"
	"net"
)

// ErrUnavailable is returned when no port in the requested range is bindable.
var ErrUnavailable = errors.New("no bindable port in range")

// Allocate scans ports from low to high inclusive and returns the first one
// that can be bound, releasing the bind immediately so the caller may reuse
// it. The window between release and reuse is an accepted race; no retry is
// performed across calls.
func Allocate(low, high int) (int, error) {
	if low <= 0 || high < low {
		return 0, fmt.Errorf("invalid port range %d..%d", low, high)
	}
	for port := low; port <= high; port++ {
		l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err != nil {
			continue
		}
		if err := l.Close(); err != nil {
			return 0, fmt.Errorf("failed to release probe bind on port %d: %w", port, err)
		}
		return port, nil
	}
	return 0, fmt.Errorf("%w: %d..%d", ErrUnavailable, low, high)
}
