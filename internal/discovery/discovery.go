// Package discovery advertises the airdraw control surface on the local
// network over mDNS so other devices can open the canvas.
package discovery

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service airdraw registers under.
const ServiceType = "_airdraw._tcp"

// DefaultTimeout bounds a Browse call.
const DefaultTimeout = 2 * time.Second

// Peer is an airdraw instance found on the network.
type Peer struct {
	Name string
	Addr string // host:port
	Info []string
}

// URL returns the peer's canvas address.
func (p Peer) URL() string {
	return "http://" + p.Addr + "/"
}

// Advertise registers this host on port. The returned server must be shut
// down by the caller.
func Advertise(port int, info ...string) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}
	if len(info) == 0 {
		info = []string{"airdraw"}
	}

	service, err := mdns.NewMDNSService(host, ServiceType, "", "", port, nil, info)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}

	return server, nil
}

// Browse queries the network for airdraw instances and calls found for each
// one with an IPv4 address. It returns once timeout has elapsed.
func Browse(timeout time.Duration, found func(Peer)) error {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	entries := make(chan *mdns.ServiceEntry, 8)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for e := range entries {
			if p, ok := toPeer(e); ok {
				found(p)
			}
		}
	}()

	params := mdns.DefaultParams(ServiceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true
	err := mdns.Query(params)

	close(entries)
	wg.Wait()
	return err
}

func toPeer(e *mdns.ServiceEntry) (Peer, bool) {
	if e == nil || e.AddrV4 == nil || e.Port == 0 {
		return Peer{}, false
	}
	return Peer{
		Name: e.Name,
		Addr: net.JoinHostPort(e.AddrV4.String(), strconv.Itoa(e.Port)),
		Info: e.InfoFields,
	}, true
}

// ListenPort extracts the port from a listen address such as ":8080" or
// "127.0.0.1:8080".
func ListenPort(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("invalid port in %q", addr)
	}
	return port, nil
}
