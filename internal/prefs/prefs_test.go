package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStore_LoadMissingReturnsDefault(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "prefs.toml"))

	p, err := s.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !p.SidebarOpen {
		t.Error("expected sidebar open by default")
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.toml")
	s := NewStore(path)

	if err := s.Save(Prefs{SidebarOpen: false}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	p, err := NewStore(path).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if p.SidebarOpen {
		t.Error("expected sidebar closed after save")
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected only the prefs file, found %d entries", len(entries))
	}
}

func TestStore_Update(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "prefs.toml"))

	p, err := s.Update(func(p *Prefs) { p.SidebarOpen = !p.SidebarOpen })
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if p.SidebarOpen {
		t.Error("expected toggled value")
	}
	loaded, _ := s.Load()
	if loaded.SidebarOpen {
		t.Error("toggle was not persisted")
	}
}

func TestStore_LoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.toml")
	os.WriteFile(path, []byte("sidebar_open = [[["), 0644)

	p, err := NewStore(path).Load()
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !p.SidebarOpen {
		t.Error("expected defaults alongside the error")
	}
}
