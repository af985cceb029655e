package model

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one role-tagged message of a conversation history. Histories are
// re-sent on every request; the server keeps no conversation state.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// LastTurns returns at most n trailing turns of history. Prompt builders
// only ever see a bounded suffix so prompt size stays bounded.
func LastTurns(history []Turn, n int) []Turn {
	if n <= 0 || len(history) == 0 {
		return nil
	}
	if len(history) > n {
		return history[len(history)-n:]
	}
	return history
}
