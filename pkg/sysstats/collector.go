// Package sysstats collects raw OS-level statistics from a node's
// management address over SSH, for embedding verbatim in a snapshot's
// sys_stat sidecar. Parsing that output is out of scope for this tool —
// it is stored as opaque text.
package sysstats

import (
	"fmt"
	"time"

	"golang.org/x/crypto/ssh"
)

// Collector runs one-shot remote commands against a single host over SSH.
// Unlike a persistent tunnel, it dials fresh per Collect call — snapshot
// assembly is infrequent enough that connection reuse isn't worth the
// lifecycle complexity.
type Collector struct {
	host string
	port int
	user string
	pass string
}

// NewCollector builds a Collector for host:port. If port is 0, 22 is used.
func NewCollector(host, user, pass string, port int) *Collector {
	if port == 0 {
		port = 22
	}
	return &Collector{host: host, port: port, user: user, pass: pass}
}

// Commands are the stat commands run by Collect, keyed by the sys_stat
// field name they populate. Collect runs them in map iteration order,
// which is not fixed.
var Commands = map[string]string{
	"uptime":   "uptime",
	"meminfo":  "cat /proc/meminfo",
	"df":       "df -h",
	"top":      "top -bn1",
	"iostat":   "iostat -x 1 2",
	"dmesg":    "dmesg | tail -n 200",
}

// Collect dials host over SSH and runs every command in Commands,
// returning raw combined output per field name. A command that fails
// contributes an empty string rather than aborting the whole collection —
// a single missing tool (e.g. iostat not installed) must not blank out
// every other stat.
func (c *Collector) Collect() (map[string]string, error) {
	client, err := c.dial()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	out := make(map[string]string, len(Commands))
	for field, cmd := range Commands {
		output, err := execCommand(client, cmd)
		if err != nil {
			out[field] = ""
			continue
		}
		out[field] = output
	}
	return out, nil
}

func (c *Collector) dial() (*ssh.Client, error) {
	config := &ssh.ClientConfig{
		User: c.user,
		Auth: []ssh.AuthMethod{
			ssh.Password(c.pass),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         10 * time.Second,
	}

	addr := fmt.Sprintf("%s:%d", c.host, c.port)
	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, fmt.Errorf("SSH dial %s@%s: %w", c.user, addr, err)
	}
	return client, nil
}

func execCommand(client *ssh.Client, cmd string) (string, error) {
	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("SSH session: %w", err)
	}
	defer session.Close()

	output, err := session.CombinedOutput(cmd)
	if err != nil {
		return string(output), fmt.Errorf("SSH exec %q: %w", cmd, err)
	}
	return string(output), nil
}
