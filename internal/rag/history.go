package rag

import (
	"strings"

	"github.com/kaidoe/docchat/internal/model"
)

// renderHistory produces the Human/Assistant transcript block shared by
// all prompt builders.
func renderHistory(turns []model.Turn) string {
	if len(turns) == 0 {
		return ""
	}
	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		speaker := "Assistant"
		if turn.Role == model.RoleUser {
			speaker = "Human"
		}
		lines = append(lines, speaker+": "+turn.Content)
	}
	return strings.Join(lines, "\n")
}
