package ui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/psarda/drona/internal/tools"
	"github.com/psarda/drona/internal/types"
)

func TestExpandMentions(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("remember this"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "src"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	got := ExpandMentions("please read @notes.txt now")
	want := "please read \n--- Context from notes.txt ---\nremember this\n---------------------------------\n now"
	if got != want {
		t.Errorf("expanded = %q, want %q", got, want)
	}

	if got := ExpandMentions("see @missing.txt"); got != "see @missing.txt" {
		t.Errorf("missing file should stay as typed, got %q", got)
	}
	if got := ExpandMentions("look in @src"); got != "look in @src" {
		t.Errorf("directory should stay as typed, got %q", got)
	}
}

func newBareSession() *Session {
	return &Session{
		Registry:    tools.NewDefaultRegistry(),
		confirms:    make(chan ConfirmRequest),
		alwaysAllow: make(map[string]bool),
	}
}

func TestConfirmNonSensitive(t *testing.T) {
	s := newBareSession()
	// Must not block: no one is draining the confirm channel.
	if !s.confirm("read_file", `{"filepath":"a.go"}`) {
		t.Error("read-only tool should not require confirmation")
	}
}

func TestConfirmAlwaysAllow(t *testing.T) {
	s := newBareSession()
	s.AllowAlways("run_command")
	if !s.confirm("run_command", `{"command":"ls"}`) {
		t.Error("always-allowed tool should pass without asking")
	}
}

func TestConfirmRoundTrip(t *testing.T) {
	s := newBareSession()

	result := make(chan bool, 1)
	go func() {
		result <- s.confirm("write_file", `{"filepath":"a.go"}`)
	}()

	select {
	case req := <-s.Confirms():
		if req.Tool != "write_file" {
			t.Errorf("req.Tool = %q, want write_file", req.Tool)
		}
		if req.Args != `{"filepath":"a.go"}` {
			t.Errorf("req.Args = %q", req.Args)
		}
		req.Respond(false)
	case <-time.After(2 * time.Second):
		t.Fatal("no confirmation request received")
	}

	select {
	case allowed := <-result:
		if allowed {
			t.Error("confirm should report denial")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("confirm did not return after Respond")
	}
}

func TestSlashCommands(t *testing.T) {
	m := NewModel(newBareSession())

	if cmd := m.handleSlashCommand("/help"); cmd != nil {
		t.Error("/help should not produce a command")
	}
	last := m.messages[len(m.messages)-1]
	if last.role != "system" || !strings.Contains(last.content, "/tools") {
		t.Errorf("help output = %+v", last)
	}

	m.handleSlashCommand("/tools")
	last = m.messages[len(m.messages)-1]
	if !strings.Contains(last.content, "read_file") || !strings.Contains(last.content, "run_command") {
		t.Errorf("tool listing missing entries: %q", last.content)
	}

	m.handleSlashCommand("/nope")
	last = m.messages[len(m.messages)-1]
	if !strings.Contains(last.content, "Unknown command") {
		t.Errorf("unknown command output = %q", last.content)
	}

	if cmd := m.handleSlashCommand("/exit"); cmd == nil {
		t.Error("/exit should quit")
	}
	if !m.quitting {
		t.Error("/exit should mark the model as quitting")
	}
}

func TestApplyEventOrdering(t *testing.T) {
	m := NewModel(newBareSession())

	m.applyEvent(types.Event{Type: types.EventToken, Token: "Let me check."})
	m.applyEvent(types.Event{Type: types.EventToolCall, ToolName: "git_status", ToolArgs: "{}"})
	m.applyEvent(types.Event{Type: types.EventToken, Token: "All clean."})

	if len(m.messages) != 2 {
		t.Fatalf("messages = %d, want 2 (flushed text + tool)", len(m.messages))
	}
	if m.messages[0].role != "assistant" || m.messages[0].content != "Let me check." {
		t.Errorf("first message = %+v", m.messages[0])
	}
	if m.messages[1].role != "tool" || m.messages[1].tool != "git_status" {
		t.Errorf("second message = %+v", m.messages[1])
	}
	if m.partial != "All clean." {
		t.Errorf("partial = %q", m.partial)
	}
}
