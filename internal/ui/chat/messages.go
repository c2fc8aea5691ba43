// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/jeranaias/soulforge/internal/config"
	"github.com/jeranaias/soulforge/internal/model"
)

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// StreamTickMsg drives redraws while a reply streams.
type StreamTickMsg struct {
	Time time.Time
}

// TurnDoneMsg is sent when a turn's Run returns. Reply.ID identifies the
// turn.
type TurnDoneMsg struct {
	Reply model.Message
	Err   error
}

// ConfigReloadedMsg carries a configuration reloaded from disk.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// ConfigErrorMsg reports a failed reload. The previous configuration stays
// in effect.
type ConfigErrorMsg struct {
	Err error
}
