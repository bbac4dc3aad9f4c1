package node

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aerocluster/asadm/pkg/codec"
	"github.com/aerocluster/asadm/pkg/util"
)

// PeersView selects which peers command to issue (spec.md §4.3 peers(view)).
type PeersView int

const (
	PeersStandard PeersView = iota
	PeersAlternate
	PeersAlumni
)

// PeersResult is the outcome of a Peers call: the endpoint list plus
// whether it changed since the last call against this node.
type PeersResult struct {
	Endpoints []Endpoint
	Changed   bool
}

// Peers fetches this node's peer list for the given view, generation-gated:
// repeat calls with an unchanged peers-generation still fetch and parse
// the reply, then return the list cached for that generation with
// Changed=false.
func (n *Node) Peers(ctx context.Context, view PeersView) (PeersResult, error) {
	command := peersCommand(view, n.tlsName != "")

	reply, err := n.call(ctx, command)
	if err != nil {
		return PeersResult{}, err
	}

	gen, endpoints, err := parsePeersReply(reply)
	if err != nil {
		return PeersResult{}, err
	}

	n.mu.Lock()
	changed := gen != n.peersGeneration || n.peersGeneration == ""
	if changed {
		n.peersGeneration = gen
		n.peersCached = endpoints
	} else {
		endpoints = n.peersCached
	}
	n.mu.Unlock()

	return PeersResult{Endpoints: endpoints, Changed: changed}, nil
}

func peersCommand(view PeersView, tls bool) string {
	proto := "clear"
	if tls {
		proto = "tls"
	}
	switch view {
	case PeersAlternate:
		return fmt.Sprintf("peers-%s-alt", proto)
	case PeersAlumni:
		return fmt.Sprintf("alumni-%s-std", proto)
	default:
		return fmt.Sprintf("peers-%s-std", proto)
	}
}

// parsePeersReply parses the "<gen>,<default-port>,[(<name>,<tls>,[<endpoints>]),…]"
// reply described in spec.md §6. The outer structure is a flat
// comma-separated triple whose third field is a parenthesized, comma
// separated list of peer records.
func parsePeersReply(reply string) (generation string, endpoints []Endpoint, err error) {
	top := splitTopLevel(reply, ',')
	if len(top) < 3 {
		return "", nil, fmt.Errorf("%w: malformed peers reply %q", util.ErrInvalidResponse, reply)
	}
	generation = top[0]

	defaultPort := 3000
	if top[1] != "" {
		if p, perr := strconv.Atoi(top[1]); perr == nil {
			defaultPort = p
		}
	}

	peerList := stripBrackets(top[2])
	for _, peerRecord := range splitParenGroups(peerList) {
		fields := splitTopLevel(peerRecord, ',')
		if len(fields) < 3 {
			continue
		}
		tlsName := fields[1]
		endpointList := stripBrackets(fields[2])
		for _, raw := range splitTopLevel(endpointList, ',') {
			host, port := splitHostPortField(raw, defaultPort)
			if host == "" {
				continue
			}
			endpoints = append(endpoints, Endpoint{Host: host, Port: port, TLSName: tlsName})
		}
	}
	return generation, endpoints, nil
}

// splitHostPortField parses a single endpoint field, tolerating bracketed
// IPv6 literals ("[::1]:3000" or "[::1],3000" forms).
func splitHostPortField(field string, defaultPort int) (host string, port int) {
	field = strings.TrimSpace(field)
	if field == "" {
		return "", 0
	}
	if strings.HasPrefix(field, "[") {
		end := strings.Index(field, "]")
		if end < 0 {
			return "", 0
		}
		host = field[1:end]
		rest := strings.TrimLeft(field[end+1:], ":,")
		if rest != "" {
			if p, err := strconv.Atoi(rest); err == nil {
				return host, p
			}
		}
		return host, defaultPort
	}
	if idx := strings.LastIndex(field, ":"); idx >= 0 && strings.Count(field, ":") == 1 {
		host = field[:idx]
		if p, err := strconv.Atoi(field[idx+1:]); err == nil {
			return host, p
		}
		return host, defaultPort
	}
	return field, defaultPort
}

func stripBrackets(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	return s
}

// splitTopLevel splits s on sep, but does not split inside matching
// [] or () groups — needed because peers replies nest bracketed lists
// inside comma-separated top-level fields.
func splitTopLevel(s string, sep byte) []string {
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[', '(':
			depth++
		case ']', ')':
			depth--
		default:
			if s[i] == sep && depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	return out
}

// splitParenGroups splits a comma-separated list of "(...)" groups into
// their inner contents, e.g. "(A,,[x]),(B,,[y])" -> ["A,,[x]", "B,,[y]"].
func splitParenGroups(s string) []string {
	var out []string
	depth := 0
	var cur strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '(':
			depth++
			if depth == 1 {
				continue
			}
		case ')':
			depth--
			if depth == 0 {
				out = append(out, cur.String())
				cur.Reset()
				continue
			}
		}
		if depth > 0 {
			cur.WriteByte(c)
		}
	}
	return out
}

// ServicesLegacy is the fallback discovery path for nodes without the
// peers feature: "host:port;…".
func (n *Node) ServicesLegacy(ctx context.Context) ([]Endpoint, error) {
	reply, err := n.call(ctx, "services")
	if err != nil {
		return nil, err
	}
	var endpoints []Endpoint
	for _, entry := range codec.ToList(reply, ";") {
		host, port := splitHostPortField(entry, n.port)
		if host == "" {
			continue
		}
		endpoints = append(endpoints, Endpoint{Host: host, Port: port, TLSName: n.tlsName})
	}
	return endpoints, nil
}

// Service returns this node's own canonical (host, port, tls_name),
// falling back to the node's configured address if the "service" command
// fails (spec.md §4.4 discovery step 2).
func (n *Node) Service(ctx context.Context) (Endpoint, error) {
	reply, err := n.call(ctx, "service")
	if err != nil {
		return Endpoint{Host: n.host, Port: n.port, TLSName: n.tlsName}, err
	}
	entries := codec.ToList(reply, ";")
	if len(entries) == 0 {
		return Endpoint{Host: n.host, Port: n.port, TLSName: n.tlsName}, nil
	}
	host, port := splitHostPortField(entries[0], n.port)
	if host == "" {
		host, port = n.host, n.port
	}
	return Endpoint{Host: host, Port: port, TLSName: n.tlsName}, nil
}
