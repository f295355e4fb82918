// Package transcript loads session telemetry files: the conversation
// turns and tool-invocation observations the pipeline analyzes. Assembly
// of these files from raw provider records happens upstream.
package transcript

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/callaudit/internal/model"
)

// Session is one recorded call: an identifier, the transcript, and the
// ordered tool observations.
type Session struct {
	ID           string                   `json:"session_id"`
	Turns        []model.ConversationTurn `json:"turns"`
	Observations []model.Observation      `json:"tool_calls"`
}

// New builds a session from already-decoded telemetry, applying the same
// turn filtering as Load.
func New(id string, turns []model.ConversationTurn, observations []model.Observation) *Session {
	return &Session{
		ID:           id,
		Turns:        filterTurns(turns),
		Observations: observations,
	}
}

// Load reads a session telemetry file and filters out entries that are
// not user-facing conversation.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "transcript: read %s", path)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, eris.Wrapf(err, "transcript: parse %s", path)
	}

	if s.ID == "" {
		s.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	s.Turns = filterTurns(s.Turns)

	return &s, nil
}

// filterTurns drops empty turns, unknown speaker roles, and turns marked
// internal by the telemetry collector.
func filterTurns(turns []model.ConversationTurn) []model.ConversationTurn {
	out := make([]model.ConversationTurn, 0, len(turns))
	for _, t := range turns {
		if strings.TrimSpace(t.Content) == "" {
			continue
		}
		if t.Role != model.RoleCaller && t.Role != model.RoleAgent {
			continue
		}
		if internal, ok := t.Metadata["internal"].(bool); ok && internal {
			continue
		}
		out = append(out, t)
	}
	return out
}
