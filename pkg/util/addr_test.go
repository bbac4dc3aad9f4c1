package util

import "testing"

func TestCanonicalNodeKey(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"10.0.0.1", 3000, "10.0.0.1:3000"},
		{"::1", 3000, "[::1]:3000"},
		{"[::1]", 3000, "[::1]:3000"},
		{"example.com", 3000, "example.com:3000"},
	}
	for _, tt := range tests {
		if got := CanonicalNodeKey(tt.host, tt.port); got != tt.want {
			t.Errorf("CanonicalNodeKey(%q, %d) = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestSplitNodeKey(t *testing.T) {
	host, port, err := SplitNodeKey("[::1]:3000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if host != "::1" || port != 3000 {
		t.Errorf("got host=%q port=%d, want ::1/3000", host, port)
	}

	host, port, err = SplitNodeKey("10.0.0.1:3000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if host != "10.0.0.1" || port != 3000 {
		t.Errorf("got host=%q port=%d, want 10.0.0.1/3000", host, port)
	}

	if _, _, err := SplitNodeKey("not-a-key"); err == nil {
		t.Error("expected error for malformed key")
	}
}

func TestIsIPv6(t *testing.T) {
	if !IsIPv6("::1") {
		t.Error("::1 should be IPv6")
	}
	if !IsIPv6("[::1]") {
		t.Error("[::1] should be IPv6")
	}
	if IsIPv6("10.0.0.1") {
		t.Error("10.0.0.1 should not be IPv6")
	}
}
