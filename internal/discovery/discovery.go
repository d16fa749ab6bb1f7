// Package discovery advertises the node's HTTP interface over mDNS so
// controllers can find it without knowing its DHCP address.
package discovery

import (
	"fmt"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the advertised mDNS service type.
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.").
	ServiceDomain = "local."
)

// Advertiser holds a live mDNS registration.
type Advertiser struct {
	server *zeroconf.Server
}

// Advertise registers the node under instance (also used as the hostname,
// e.g. "switchnode-a1b2c3") on the given HTTP port. Shut it down with Close.
func Advertise(instance string, port int) (*Advertiser, error) {
	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port,
		[]string{"relays=4", "inputs=4"}, nil)
	if err != nil {
		return nil, fmt.Errorf("mdns register: %w", err)
	}
	return &Advertiser{server: server}, nil
}

// Close withdraws the registration.
func (a *Advertiser) Close() {
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}
