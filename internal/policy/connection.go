package policy

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/eliteGoblin/focusd/nas_power/internal/domain"
)

// ConnectionPolicy matches probe output lines that designate the watched endpoint.
//
// The expected line layout is the netstat one:
//
//	proto recv-q send-q local-address ...
//	tcp        0      0 192.168.1.10:2049       192.168.1.20:871   ESTABLISHED
//
// Only tcp/udp lines with both queues empty count. A change in the probe's
// column layout breaks this contract.
type ConnectionPolicy struct {
	endpoint string
	pattern  *regexp.Regexp
}

// NewConnectionPolicy compiles the match pattern for address:port.
func NewConnectionPolicy(address string, port int) (*ConnectionPolicy, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("%w: empty watch address", domain.ErrInvalidConfig)
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("%w: watch port %d out of range", domain.ErrInvalidConfig, port)
	}

	endpoint := fmt.Sprintf("%s:%d", address, port)
	// The trailing class keeps :2049 from matching :20490.
	expr := `(?im)^(?:tcp|udp)\s+0\s+0\s+` + regexp.QuoteMeta(endpoint) + `(?:\s|$)`

	return &ConnectionPolicy{
		endpoint: endpoint,
		pattern:  regexp.MustCompile(expr),
	}, nil
}

// Matches reports whether any line of output shows the endpoint.
func (p *ConnectionPolicy) Matches(output string) bool {
	return p.pattern.MatchString(output)
}

// Endpoint returns the watched "address:port".
func (p *ConnectionPolicy) Endpoint() string {
	return p.endpoint
}

// Pattern returns the compiled expression source.
func (p *ConnectionPolicy) Pattern() string {
	return p.pattern.String()
}

// Ensure ConnectionPolicy implements domain.ConnectionMatcher.
var _ domain.ConnectionMatcher = (*ConnectionPolicy)(nil)
