package setup

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gabe/consultant/internal/config"
)

func TestWizard_Run(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	in := strings.NewReader("not a url\nhttps://admin.example.com/\n\n/tmp/creds.json\n")
	var out bytes.Buffer

	cfg, err := NewWizard(in, &out).Run(path)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if cfg.API.AdminURL != "https://admin.example.com" {
		t.Errorf("expected trimmed admin url, got %s", cfg.API.AdminURL)
	}
	if cfg.API.AgentURL != config.DefaultConfig().API.AgentURL {
		t.Errorf("expected default agent url, got %s", cfg.API.AgentURL)
	}
	if cfg.Auth.CredentialsFile != "/tmp/creds.json" {
		t.Errorf("unexpected credentials file %s", cfg.Auth.CredentialsFile)
	}
	if !strings.Contains(out.String(), "is not an http(s) URL") {
		t.Error("expected the invalid url to be rejected")
	}

	loaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.API.AdminURL != cfg.API.AdminURL {
		t.Errorf("saved config mismatch: %s", loaded.API.AdminURL)
	}
}

func TestWizard_EOFUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := NewWizard(strings.NewReader(""), &bytes.Buffer{}).Run(path)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if cfg.API.AdminURL != config.DefaultConfig().API.AdminURL {
		t.Errorf("expected defaults on EOF, got %s", cfg.API.AdminURL)
	}
}
