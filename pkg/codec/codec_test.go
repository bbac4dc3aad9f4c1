package codec

import (
	"bytes"
	"errors"
	"testing"

	"github.com/aerocluster/asadm/pkg/util"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	wire := Encode("statistics")

	got, err := Decode(bytes.NewReader(wire))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "statistics" {
		t.Errorf("got %q, want %q", got, "statistics")
	}
}

func TestDecodeEmptyPayload(t *testing.T) {
	wire := Encode("")
	// Encode always appends "\n" so payload length is 1, not 0; verify the
	// newline is trimmed back off.
	got, err := Decode(bytes.NewReader(wire))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Errorf("got %q, want empty string", got)
	}
}

func TestDecodeTruncatedHeader(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte{2, 1, 0}))
	if !errors.Is(err, util.ErrInvalidResponse) {
		t.Errorf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestDecodeBadVersion(t *testing.T) {
	header := []byte{9, 1, 0, 0, 0, 0, 0, 1}
	_, err := Decode(bytes.NewReader(append(header, 'x')))
	if !errors.Is(err, util.ErrInvalidResponse) {
		t.Errorf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestDecodeTruncatedPayload(t *testing.T) {
	header := []byte{2, 1, 0, 0, 0, 0, 0, 10}
	_, err := Decode(bytes.NewReader(append(header, 'a', 'b')))
	if !errors.Is(err, util.ErrInvalidResponse) {
		t.Errorf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestToList(t *testing.T) {
	got := ToList("a;b;;c;", ";")
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestToDict(t *testing.T) {
	m := ToDict("a=1;b=2;a=3")
	v, ok := m.Get("a")
	if !ok || v != "3" {
		t.Errorf("expected last-wins a=3, got %q ok=%v", v, ok)
	}
	if v, _ := m.Get("b"); v != "2" {
		t.Errorf("expected b=2, got %q", v)
	}
	if m.Len() != 2 {
		t.Errorf("expected 2 keys, got %d", m.Len())
	}
}

func TestToDictPreservesOrder(t *testing.T) {
	m := ToDict("z=1;a=2;m=3")
	got := m.Keys()
	want := []string{"z", "a", "m"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("order mismatch at %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestColonToDict(t *testing.T) {
	m := ColonToDict("host:127.0.0.1:port:3000")
	if v, _ := m.Get("host"); v != "127.0.0.1" {
		t.Errorf("got %q, want 127.0.0.1", v)
	}
	if v, _ := m.Get("port"); v != "3000" {
		t.Errorf("got %q, want 3000", v)
	}
}

func TestToDictMultiLevel(t *testing.T) {
	// udf-list style: "filename=a.lua,hash=h1,type=LUA;filename=b.lua,hash=h2,type=LUA;"
	m := ToDictMultiLevel("filename=a.lua,hash=h1,type=LUA;filename=b.lua,hash=h2,type=LUA;", "filename")
	if m.Len() != 2 {
		t.Fatalf("expected 2 outer keys, got %d", m.Len())
	}
	fields, ok := m.Get("a.lua")
	if !ok {
		t.Fatalf("expected a.lua present")
	}
	if v, _ := fields.Get("hash"); v != "h1" {
		t.Errorf("got %q, want h1", v)
	}
}

func TestToDictMultiLevelFirstWinsOnDuplicateOuterKey(t *testing.T) {
	m := ToDictMultiLevel("filename=a.lua,hash=h1;filename=a.lua,hash=h2;", "filename")
	fields, _ := m.Get("a.lua")
	if v, _ := fields.Get("hash"); v != "h1" {
		t.Errorf("expected first-seen hash=h1 to win, got %q", v)
	}
}
