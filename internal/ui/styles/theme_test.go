// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestNewTheme_ExplicitMode(t *testing.T) {
	dark := NewTheme("dark")
	assert.True(t, dark.IsDark)
	assert.Equal(t, "monokai", dark.ChromaStyle())

	light := NewTheme("light")
	assert.False(t, light.IsDark)
	assert.Equal(t, "friendly", light.ChromaStyle())
}

func TestChromaFormatter(t *testing.T) {
	tests := []struct {
		profile termenv.Profile
		want    string
	}{
		{termenv.TrueColor, "terminal16m"},
		{termenv.ANSI256, "terminal256"},
		{termenv.ANSI, "terminal256"},
		{termenv.Ascii, "noop"},
	}
	for _, tt := range tests {
		th := &Theme{ColorProfile: tt.profile}
		assert.Equal(t, tt.want, th.ChromaFormatter())
	}
}

func TestStylesRenderText(t *testing.T) {
	th := NewTheme("dark")

	assert.Contains(t, th.Strong.Render("bold"), "bold")
	assert.Contains(t, th.Header.Render("TARGET"), "TARGET")
}
