// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session drives chat turns against a provider and owns the message
// history.
//
// A turn moves through idle → awaiting-first-fragment → streaming and ends
// completed or errored. Only one turn may be active at a time. Begin records
// the user message and an empty streaming reply synchronously; Turn.Run then
// consumes the provider stream on the caller's goroutine, appending each
// fragment to the reply and publishing a copy of it to the update observer.
//
// # Key Types
//
//   - Session: history owner and single-flight gate
//   - Turn: one user message bound to its in-progress reply
//   - State: the turn lifecycle state
//
// # Usage
//
//	s := session.New(dispatcher, session.WithUpdateFunc(func(m model.Message) {
//	    program.Send(replyMsg{m})
//	}))
//	turn, err := s.Begin("Design a parry window", cfg)
//	if err != nil {
//	    return err // ErrEmptyInput or ErrTurnActive
//	}
//	go turn.Run(ctx)
//
// Reset clears history immediately. A turn still streaming at that moment is
// detached: its context is cancelled and any update it would still make is
// dropped.
package session
