// Package codec frames and parses the line-oriented info protocol spoken
// by every cluster node: a single request line in, one length-prefixed
// reply out, plus the small family of parsing helpers info-map values are
// built from (semicolon lists, colon pairs, multi-level records).
package codec

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/aerocluster/asadm/pkg/util"
)

// Header is the 8-byte frame prefix: 1 byte protocol version, 1 byte
// message type, 6 bytes big-endian payload length.
const headerSize = 8

const (
	protoVersion = 2
	msgTypeInfo  = 1
)

// Encode produces the wire bytes for a single info command. The server
// reads everything up to the trailing newline as the command string.
func Encode(command string) []byte {
	body := []byte(command + "\n")

	buf := make([]byte, headerSize+len(body))
	buf[0] = protoVersion
	buf[1] = msgTypeInfo
	putLength48(buf[2:headerSize], uint64(len(body)))
	copy(buf[headerSize:], body)
	return buf
}

func putLength48(b []byte, n uint64) {
	var full [8]byte
	binary.BigEndian.PutUint64(full[:], n)
	copy(b, full[2:])
}

func getLength48(b []byte) uint64 {
	var full [8]byte
	copy(full[2:], b)
	return binary.BigEndian.Uint64(full[:])
}

// Decode reads one complete reply frame from r and returns its payload as
// a string with any trailing newline trimmed. It fails with
// util.ErrInvalidResponse on a malformed header or a short read. A read
// that hit the reader's deadline (callers set deadlines on the net.Conn
// before calling Decode) is returned unwrapped, so the caller can classify
// it as util.ErrTimeout.
func Decode(r io.Reader) (string, error) {
	br := bufio.NewReaderSize(r, 4096)

	header := make([]byte, headerSize)
	if _, err := io.ReadFull(br, header); err != nil {
		if isTimeout(err) {
			return "", err
		}
		return "", fmt.Errorf("%w: reading frame header: %v", util.ErrInvalidResponse, err)
	}
	if header[0] != protoVersion {
		return "", fmt.Errorf("%w: unexpected protocol version %d", util.ErrInvalidResponse, header[0])
	}

	length := getLength48(header[2:headerSize])
	if length == 0 {
		return "", nil
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(br, payload); err != nil {
		if isTimeout(err) {
			return "", err
		}
		return "", fmt.Errorf("%w: reading frame payload: %v", util.ErrInvalidResponse, err)
	}

	return strings.TrimRight(string(payload), "\n\r"), nil
}

// isTimeout reports whether err is a read deadline expiring.
func isTimeout(err error) bool {
	te, ok := err.(interface{ Timeout() bool })
	return ok && te.Timeout()
}

// ToList splits s on sep, trimming surrounding whitespace on each field
// and dropping empty fields produced by trailing/leading separators.
func ToList(s string, sep string) []string {
	if sep == "" {
		sep = ";"
	}
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// ToDict parses a semicolon-delimited "k=v;k=v;…" record into an ordered
// mapping. Duplicate keys are last-wins. Values are left as strings; no
// caller-specific numeric interpretation happens here.
func ToDict(s string) *OrderedMap {
	return parseDict(s, ";", "=")
}

// ColonToDict parses a colon-delimited "k:v:k:v:…" record — pairs of
// adjacent fields, not a single "k:v" per field.
func ColonToDict(s string) *OrderedMap {
	fields := ToList(s, ":")
	m := NewOrderedMap()
	for i := 0; i+1 < len(fields); i += 2 {
		m.Set(fields[i], fields[i+1])
	}
	return m
}

// parseDict splits s on recordSep into fields, each expected to contain
// exactly one pairSep, and folds them into an ordered map (last wins).
func parseDict(s, recordSep, pairSep string) *OrderedMap {
	m := NewOrderedMap()
	for _, field := range ToList(s, recordSep) {
		idx := strings.Index(field, pairSep)
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(field[:idx])
		val := strings.TrimSpace(field[idx+len(pairSep):])
		if key == "" {
			continue
		}
		m.Set(key, val)
	}
	return m
}

// ToDictMultiLevel parses a ";"-delimited list of "k=v,k=v,…" records and
// groups them by the value of outerKey within each record, producing
// outerKey-value -> (field -> value). A record missing outerKey is
// skipped. On a duplicate outer key, the first occurrence wins — mirrors
// the peers/services discovery rule in §4.4 of keeping the first-seen
// record when two replies disagree.
func ToDictMultiLevel(s string, outerKey string) *MultiLevelMap {
	out := NewMultiLevelMap()
	for _, record := range ToList(s, ";") {
		fields := parseDict(record, ",", "=")
		key, ok := fields.Get(outerKey)
		if !ok {
			continue
		}
		out.SetIfAbsent(key, fields)
	}
	return out
}
