package mavlink

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bluenviron/gomavlib/v2"
)

const defaultBaud = 57600

// ParseEndpoint maps a connection address onto a gomavlib endpoint:
//
//	udp://[host]:port      listen for the autopilot (alias udpin://)
//	udpout://host:port     send to the autopilot
//	tcp://host:port        connect to a TCP server
//	serial:///dev/x[:baud] serial port, default 57600 baud
func ParseEndpoint(address string) (gomavlib.EndpointConf, error) {
	scheme, rest, ok := strings.Cut(address, "://")
	if !ok || rest == "" {
		return nil, fmt.Errorf("invalid mavlink address %q", address)
	}

	switch strings.ToLower(scheme) {
	case "udp", "udpin":
		return gomavlib.EndpointUDPServer{Address: rest}, nil
	case "udpout":
		return gomavlib.EndpointUDPClient{Address: rest}, nil
	case "tcp", "tcpout":
		return gomavlib.EndpointTCPClient{Address: rest}, nil
	case "serial":
		device, baud := rest, defaultBaud
		if i := strings.LastIndex(rest, ":"); i > 0 {
			b, err := strconv.Atoi(rest[i+1:])
			if err != nil {
				return nil, fmt.Errorf("invalid baud rate in %q: %w", address, err)
			}
			device, baud = rest[:i], b
		}
		return gomavlib.EndpointSerial{Device: device, Baud: baud}, nil
	}

	return nil, fmt.Errorf("unsupported mavlink scheme %q", scheme)
}
