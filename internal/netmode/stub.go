//go:build !linux

package netmode

import (
	"context"
	"errors"
)

// NMStation is not available on non-Linux platforms.
type NMStation struct {
	Interface string
}

func NewNMStation(iface string) *NMStation {
	return &NMStation{Interface: iface}
}

func (s *NMStation) Join(ctx context.Context, ssid, password string) error {
	return errors.New("netmode: not supported on this platform (requires Linux)")
}

func (s *NMStation) StartAccessPoint(ssid string) (string, error) {
	return "", errors.New("netmode: not supported")
}

func (s *NMStation) Address() (string, error) {
	return "", errors.New("netmode: not supported")
}
