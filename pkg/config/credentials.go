package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/aerocluster/asadm/pkg/node"
	"github.com/aerocluster/asadm/pkg/util"
)

// HostCredentials maps a canonical NodeKey to its per-host credentials,
// loaded from a multi-host credentials file.
type HostCredentials map[string]node.Credentials

// LoadCredentialsFile parses a credentials file of lines
// "<ip[:port]> <user> <password>", one host per line. Blank lines and
// lines starting with "#" are skipped. A malformed line is skipped and
// logged rather than failing the whole load, per spec.md §9's defensive
// parsing posture — one bad line must never prevent connecting to every
// other host in the file.
func LoadCredentialsFile(path string) (HostCredentials, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make(HostCredentials)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 3 {
			util.Logger.WithField("line", lineNo).Warn("credentials file: expected 3 fields, skipping")
			continue
		}

		host, port, err := splitHostOptionalPort(fields[0])
		if err != nil {
			util.Logger.WithField("line", lineNo).WithError(err).Warn("credentials file: bad host, skipping")
			continue
		}

		key := util.CanonicalNodeKey(host, port)
		out[key] = node.Credentials{User: fields[1], Password: fields[2]}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// splitHostOptionalPort accepts "host", "host:port", "[ipv6]", or
// "[ipv6]:port" and returns the bare host plus a port (DefaultPort if
// none given).
func splitHostOptionalPort(s string) (string, int, error) {
	if strings.HasPrefix(s, "[") {
		end := strings.Index(s, "]")
		if end < 0 {
			return "", 0, strconv.ErrSyntax
		}
		host := s[1:end]
		rest := s[end+1:]
		if rest == "" {
			return host, DefaultPort, nil
		}
		rest = strings.TrimPrefix(rest, ":")
		port, err := strconv.Atoi(rest)
		if err != nil {
			return "", 0, err
		}
		return host, port, nil
	}

	idx := strings.LastIndex(s, ":")
	if idx < 0 || strings.Count(s, ":") > 1 {
		// bare IPv4/hostname, or unbracketed IPv6 literal with no port
		return s, DefaultPort, nil
	}
	host := s[:idx]
	port, err := strconv.Atoi(s[idx+1:])
	if err != nil {
		return "", 0, err
	}
	return host, port, nil
}
