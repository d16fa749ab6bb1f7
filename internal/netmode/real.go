//go:build linux

package netmode

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"strings"
)

// HotspotAddress is the address nmcli assigns the hotspot interface in
// shared mode.
const HotspotAddress = "10.42.0.1"

// NMStation drives the wireless interface through NetworkManager's nmcli.
type NMStation struct {
	// Interface is the wireless device name, e.g. "wlan0".
	Interface string
}

func NewNMStation(iface string) *NMStation {
	return &NMStation{Interface: iface}
}

func (s *NMStation) Join(ctx context.Context, ssid, password string) error {
	args := []string{"device", "wifi", "connect", ssid, "ifname", s.Interface}
	if password != "" {
		args = append(args, "password", password)
	}
	out, err := exec.CommandContext(ctx, "nmcli", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("nmcli connect %q: %v: %s", ssid, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (s *NMStation) StartAccessPoint(ssid string) (string, error) {
	out, err := exec.Command("nmcli", "device", "wifi", "hotspot",
		"ifname", s.Interface, "ssid", ssid).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("nmcli hotspot %q: %v: %s", ssid, err, strings.TrimSpace(string(out)))
	}
	return HotspotAddress, nil
}

// Address returns the interface's IPv4 address.
func (s *NMStation) Address() (string, error) {
	iface, err := net.InterfaceByName(s.Interface)
	if err != nil {
		return "", fmt.Errorf("interface %s: %w", s.Interface, err)
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return "", fmt.Errorf("interface %s addrs: %w", s.Interface, err)
	}
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && ipnet.IP.To4() != nil {
			return ipnet.IP.String(), nil
		}
	}
	return "", fmt.Errorf("interface %s has no IPv4 address", s.Interface)
}
