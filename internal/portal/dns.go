package portal

import (
	"fmt"
	"net"

	"github.com/sweeney/switchnode/internal/logging"

	"github.com/miekg/dns"
	"go.uber.org/zap"
)

// dnsTTL is deliberately short so clients re-resolve quickly once the node
// leaves provisioning mode.
const dnsTTL = 10

// DNSServer answers every A query with the hotspot address so any hostname
// a client tries lands on the setup page.
type DNSServer struct {
	server *dns.Server
	ip     net.IP
}

// NewDNSServer builds a responder bound to addr (typically ":53") steering
// clients to apIP.
func NewDNSServer(addr, apIP string) (*DNSServer, error) {
	ip := net.ParseIP(apIP).To4()
	if ip == nil {
		return nil, fmt.Errorf("invalid hotspot address %q", apIP)
	}

	s := &DNSServer{ip: ip}
	mux := dns.NewServeMux()
	mux.HandleFunc(".", s.handleQuery)
	s.server = &dns.Server{Addr: addr, Net: "udp", Handler: mux}
	return s, nil
}

// ListenAndServe blocks serving queries until Shutdown.
func (s *DNSServer) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown stops the responder.
func (s *DNSServer) Shutdown() error {
	return s.server.Shutdown()
}

func (s *DNSServer) handleQuery(w dns.ResponseWriter, r *dns.Msg) {
	m := new(dns.Msg)
	m.SetReply(r)
	m.Authoritative = true

	for _, q := range r.Question {
		if q.Qtype != dns.TypeA {
			continue
		}
		m.Answer = append(m.Answer, &dns.A{
			Hdr: dns.RR_Header{
				Name:   q.Name,
				Rrtype: dns.TypeA,
				Class:  dns.ClassINET,
				Ttl:    dnsTTL,
			},
			A: s.ip,
		})
	}

	if err := w.WriteMsg(m); err != nil {
		logging.Warn("dns reply failed", zap.Error(err))
	}
}
