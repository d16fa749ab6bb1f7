package netmode

import "context"

// FakeStation is a test double for Station.
type FakeStation struct {
	JoinCalls  []JoinCall
	JoinErr    error
	JoinBlocks bool // Join waits on ctx instead of returning

	APCalls []string
	APAddr  string
	APErr   error

	Addr    string
	AddrErr error
}

type JoinCall struct {
	SSID     string
	Password string
}

func (f *FakeStation) Join(ctx context.Context, ssid, password string) error {
	f.JoinCalls = append(f.JoinCalls, JoinCall{SSID: ssid, Password: password})
	if f.JoinBlocks {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.JoinErr
}

func (f *FakeStation) StartAccessPoint(ssid string) (string, error) {
	f.APCalls = append(f.APCalls, ssid)
	return f.APAddr, f.APErr
}

func (f *FakeStation) Address() (string, error) {
	return f.Addr, f.AddrErr
}
