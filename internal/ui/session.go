package ui

import (
	"fmt"
	"os"
	"regexp"
	"sync"

	"go.uber.org/zap"

	"github.com/psarda/drona/internal/agent"
	"github.com/psarda/drona/internal/config"
	"github.com/psarda/drona/internal/tools"
	"github.com/psarda/drona/internal/usage"
)

// mentionPattern matches @filename references in chat input.
var mentionPattern = regexp.MustCompile(`@([\w./-]+)`)

// ConfirmRequest asks the user whether a sensitive tool may run. The
// engine goroutine blocks until Respond is called.
type ConfirmRequest struct {
	Tool  string
	Args  string
	reply chan bool
}

// Respond releases the engine with the user's decision.
func (r ConfirmRequest) Respond(allow bool) { r.reply <- allow }

// Session owns one chat conversation: the engine, its tool registry
// and the per-session tool permissions.
type Session struct {
	Engine   *agent.Engine
	Registry *tools.Registry
	Tracker  *usage.Tracker

	confirms chan ConfirmRequest

	mu          sync.Mutex
	alwaysAllow map[string]bool
}

// NewSession builds a chat session with the full tool registry.
func NewSession(cfg *config.Manager, logger *zap.Logger) *Session {
	s := &Session{
		Registry:    tools.NewDefaultRegistry(),
		Tracker:     usage.NewTracker(),
		confirms:    make(chan ConfirmRequest),
		alwaysAllow: make(map[string]bool),
	}
	s.Engine = agent.New(cfg, "chat", agent.Options{
		Registry: s.Registry,
		Confirm:  s.confirm,
		Tracker:  s.Tracker,
		Logger:   logger,
	})
	return s
}

// Confirms delivers pending confirmation requests to the UI.
func (s *Session) Confirms() <-chan ConfirmRequest { return s.confirms }

// AllowAlways grants a tool session-wide permission.
func (s *Session) AllowAlways(tool string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alwaysAllow[tool] = true
}

// confirm is the engine callback. Read-only tools pass straight
// through; sensitive ones consult session permissions and then the
// user.
func (s *Session) confirm(tool, args string) bool {
	if !tools.IsSensitive(tool) {
		return true
	}
	s.mu.Lock()
	allowed := s.alwaysAllow[tool]
	s.mu.Unlock()
	if allowed {
		return true
	}

	reply := make(chan bool, 1)
	s.confirms <- ConfirmRequest{Tool: tool, Args: args, reply: reply}
	return <-reply
}

// ExpandMentions replaces @filename references with the file's content
// so the model sees it inline. Unreadable or missing paths are left as
// typed.
func ExpandMentions(input string) string {
	return mentionPattern.ReplaceAllStringFunc(input, func(match string) string {
		path := match[1:]
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return match
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return match
		}
		return fmt.Sprintf("\n--- Context from %s ---\n%s\n---------------------------------\n", path, content)
	})
}
