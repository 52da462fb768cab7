package tui

import "testing"

func TestFilterSlashCommands(t *testing.T) {
	matches := FilterSlashCommands(DefaultSlashCommands(), "/re")
	if len(matches) != 2 || matches[0].Name != "retry" || matches[1].Name != "report" {
		t.Fatalf("expected /retry and /report, got %+v", matches)
	}
	if all := FilterSlashCommands(DefaultSlashCommands(), "/"); len(all) != len(DefaultSlashCommands()) {
		t.Fatalf("expected all commands for bare slash")
	}
}

func TestFilterSlashCommandsSelection(t *testing.T) {
	cmds := []SlashCommand{{Name: "retry"}, {Name: "events"}}

	if next := NextSlashIndex(0, len(cmds), 1); next != 1 {
		t.Fatalf("expected index 1, got %d", next)
	}
	if next := NextSlashIndex(1, len(cmds), 1); next != 0 {
		t.Fatalf("expected wrap to 0, got %d", next)
	}
	if next := NextSlashIndex(0, len(cmds), -1); next != 1 {
		t.Fatalf("expected wrap to 1, got %d", next)
	}
	if next := NextSlashIndex(0, 0, 1); next != 0 {
		t.Fatalf("expected index 0 for empty list, got %d", next)
	}
}

func TestParseSlash(t *testing.T) {
	name, args, ok := ParseSlash("  /Report now ")
	if !ok || name != "report" || args != "now" {
		t.Fatalf("unexpected parse: %q %q %v", name, args, ok)
	}
	if _, _, ok := ParseSlash("hello /retry"); ok {
		t.Fatal("plain text parsed as a command")
	}
}
