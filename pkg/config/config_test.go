package config

import (
	"path/filepath"
	"testing"
)

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	c, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.GetPort() != DefaultPort {
		t.Errorf("got port %d, want %d", c.GetPort(), DefaultPort)
	}
	if c.GetTimeoutSeconds() != DefaultTimeoutSeconds {
		t.Errorf("got timeout %d, want %d", c.GetTimeoutSeconds(), DefaultTimeoutSeconds)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	c := &Config{
		SeedHosts:         []string{"10.0.0.1", "10.0.0.2:3010"},
		User:              "admin",
		UseServicesAlumni: true,
	}
	if err := c.SaveTo(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.SeedHosts) != 2 || loaded.SeedHosts[0] != "10.0.0.1" {
		t.Errorf("got seed hosts %v", loaded.SeedHosts)
	}
	if loaded.User != "admin" || !loaded.UseServicesAlumni {
		t.Errorf("got %+v", loaded)
	}
}

func TestGetPortUsesConfiguredValue(t *testing.T) {
	c := &Config{DefaultPort: 4000}
	if c.GetPort() != 4000 {
		t.Errorf("got %d, want 4000", c.GetPort())
	}
}
