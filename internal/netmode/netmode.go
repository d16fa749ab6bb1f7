// Package netmode decides at boot whether the node runs its normal service
// stack or falls back to an open setup hotspot.
package netmode

import (
	"context"
	"time"

	"github.com/sweeney/switchnode/internal/logging"

	"go.uber.org/zap"
)

// Mode is the boot-time network decision. It does not change while the
// process runs; new credentials take effect through a restart.
type Mode string

const (
	// ModeProvisioning: no usable credentials, run the setup hotspot.
	ModeProvisioning Mode = "ap"
	// ModeOperational: joined the configured network, run the full stack.
	ModeOperational Mode = "sta"
)

// JoinTimeout bounds how long a station association may take before the
// node gives up and opens the setup hotspot instead.
const JoinTimeout = 20 * time.Second

// Credential is the stored network credential.
type Credential struct {
	SSID     string
	Password string
}

// Station abstracts the wireless interface.
type Station interface {
	// Join associates with the named network, blocking until associated,
	// failed, or ctx is done.
	Join(ctx context.Context, ssid, password string) error
	// StartAccessPoint brings up an open hotspot for provisioning and
	// returns the address clients should be steered to.
	StartAccessPoint(ssid string) (ip string, err error)
	// Address reports the station address after a successful Join.
	Address() (string, error)
}

// Decide returns the mode the node should boot into. An empty SSID skips
// the join entirely; a failed or timed-out join falls back to provisioning
// rather than halting.
func Decide(ctx context.Context, station Station, cred Credential) Mode {
	if cred.SSID == "" {
		logging.Info("no network credential stored, starting setup hotspot")
		return ModeProvisioning
	}

	joinCtx, cancel := context.WithTimeout(ctx, JoinTimeout)
	defer cancel()

	logging.Info("joining network", zap.String("ssid", cred.SSID))
	if err := station.Join(joinCtx, cred.SSID, cred.Password); err != nil {
		logging.Warn("join failed, starting setup hotspot",
			zap.String("ssid", cred.SSID), zap.Error(err))
		return ModeProvisioning
	}
	return ModeOperational
}
