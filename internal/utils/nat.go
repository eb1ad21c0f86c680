package utils

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	natlib "github.com/libp2p/go-nat"
)

// NAT aliases the libp2p NAT interface so the external package does not leak
// beyond this utility layer.
type NAT = natlib.NAT

var (
	natOnce      sync.Once
	cachedNAT    NAT
	cachedNATErr error
)

// DiscoverNAT attempts to locate a NAT gateway using UPnP or NAT-PMP.
// The result is cached for the process lifetime to avoid repeated SSDP lookups.
func DiscoverNAT(ctx context.Context) (NAT, error) {
	natOnce.Do(func() {
		c, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		cachedNAT, cachedNATErr = natlib.DiscoverGateway(c)
	})
	return cachedNAT, cachedNATErr
}

// GetExternalIP returns the external IP address from the discovered NAT device.
func GetExternalIP(ctx context.Context) (net.IP, error) {
	n, err := DiscoverNAT(ctx)
	if err != nil || n == nil {
		return nil, err
	}
	return n.GetExternalAddress()
}

// AddOrRefreshMapping ensures a TCP/UDP port mapping exists for the given
// internal port. Returns the external port assigned by the gateway.
func AddOrRefreshMapping(ctx context.Context, protocol string, internalPort int, description string, lifetime time.Duration) (int, error) {
	n, err := DiscoverNAT(ctx)
	if err != nil || n == nil {
		return 0, err
	}
	c, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return n.AddPortMapping(c, protocol, internalPort, description, lifetime)
}

// DeleteMapping removes a port mapping for the given internal port/protocol.
func DeleteMapping(ctx context.Context, protocol string, internalPort int) error {
	n, err := DiscoverNAT(ctx)
	if err != nil || n == nil {
		return err
	}
	c, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return n.DeletePortMapping(c, protocol, internalPort)
}

const mappingLifetime = 30 * time.Minute

// StartPanelMapping keeps a router port mapping alive for the panel port
// until stop is closed. Failures are logged and retried on the next refresh.
func StartPanelMapping(port int, logger *Logger, stop <-chan struct{}) {
	refresh := func() {
		ctx := context.Background()
		external, err := AddOrRefreshMapping(ctx, "tcp", port, "sysbar panel", mappingLifetime)
		if err != nil {
			if logger != nil {
				logger.Write(fmt.Sprintf("NAT: port mapping failed: %v", err))
			}
			return
		}
		if logger != nil && external != port {
			logger.Write(fmt.Sprintf("NAT: panel mapped to external port %d", external))
		}
	}

	refresh()
	ticker := time.NewTicker(mappingLifetime / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			refresh()
		case <-stop:
			_ = DeleteMapping(context.Background(), "tcp", port)
			return
		}
	}
}
