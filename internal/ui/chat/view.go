// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/jeranaias/soulforge/internal/session"
	"github.com/jeranaias/soulforge/internal/util"
)

// View renders the header, conversation, input and status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading SoulForge…"
	}

	m.header.UEVersion = m.settings.UEVersion
	m.header.Provider = m.settings.Kind()
	m.header.Busy = m.sess.Busy()

	var b strings.Builder
	b.WriteString(m.header.View())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.theme.InputContainer.Width(m.width).Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	return b.String()
}

func (m Model) statusLine() string {
	var text string
	switch {
	case m.lastError != nil:
		return m.theme.Error.Render(util.Truncate("✗ "+m.lastError.Error(), m.width))
	case m.popup.HasCompletions():
		text = m.popup.ViewInline()
	case m.turn != nil:
		verb := "is writing…"
		if m.sess.State() == session.StateAwaiting {
			verb = "is thinking…"
		}
		text = m.spinner.View() + " " + m.settings.Snapshot("").DisplayName() + " " + verb + " (Esc to stop)"
	case m.status != "":
		text = m.status
	default:
		var hints []string
		for _, k := range m.keys.ShortHelp() {
			h := k.Help()
			hints = append(hints, h.Key+" "+h.Desc)
		}
		text = strings.Join(hints, " · ")
	}
	return m.theme.StatusBar.Render(util.Truncate(text, m.width-2))
}
