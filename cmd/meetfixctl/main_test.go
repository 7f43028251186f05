package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestInviteCodeCommandPrintsCodes(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"invite-code", "--count", "3"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	lines := strings.Fields(out.String())
	if len(lines) != 3 {
		t.Fatalf("expected 3 codes, got %q", out.String())
	}
	if lines[0] == lines[1] && lines[1] == lines[2] {
		t.Fatalf("expected distinct codes, got %v", lines)
	}
}

func TestInviteCodeCommandRejectsZeroCount(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"invite-code", "--count", "0"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected error for zero count")
	}
}

func TestICSCommandRequiresUser(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"ics", "event-1"})
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "user") {
		t.Fatalf("expected missing --user error, got %v", err)
	}
}

func TestMigrateCommandRequiresDirection(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"migrate"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected argument error")
	}
}
