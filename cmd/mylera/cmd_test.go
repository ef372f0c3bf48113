// ABOUTME: Tests for CLI helper functions and command registration.
// ABOUTME: Covers padRight, orUnset, and the registered command set.
package main

import "testing"

func TestPadRight(t *testing.T) {
	tests := []struct {
		name  string
		input string
		width int
		want  string
	}{
		{"shorter than width", "steps", 8, "steps   "},
		{"equal to width", "steps", 5, "steps"},
		{"longer than width", "flights_climbed", 5, "flights_climbed"},
		{"empty", "", 3, "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := padRight(tt.input, tt.width); got != tt.want {
				t.Errorf("padRight(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.want)
			}
		})
	}
}

func TestOrUnset(t *testing.T) {
	if got := orUnset(""); got != "(not set)" {
		t.Errorf("orUnset(\"\") = %q", got)
	}
	if got := orUnset("user-1"); got != "user-1" {
		t.Errorf("orUnset(\"user-1\") = %q", got)
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{
		"sync":        false,
		"status":      false,
		"metrics":     false,
		"permissions": false,
		"config":      false,
		"mcp":         false,
	}
	for _, cmd := range rootCmd.Commands() {
		if _, ok := want[cmd.Name()]; ok {
			want[cmd.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestConfigSubcommands(t *testing.T) {
	var hasShow, hasSet bool
	for _, cmd := range configCmd.Commands() {
		switch cmd.Name() {
		case "show":
			hasShow = true
		case "set":
			hasSet = true
		}
	}
	if !hasShow || !hasSet {
		t.Errorf("config subcommands incomplete: show=%v set=%v", hasShow, hasSet)
	}
}
