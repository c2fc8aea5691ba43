// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"

	"github.com/jeranaias/soulforge/internal/model"
)

const (
	defaultBatchSize = 15
	defaultMaxFPS    = 30
	maxMaxFPS        = 120
)

// =============================================================================
// STREAMING BUFFER
// =============================================================================

// StreamingBuffer coalesces message snapshots between redraws.
//
// Snapshots are cumulative, so only the latest one per message is kept.
// Flush releases them when either the number of updates since the last
// flush reaches the batch size, or the frame limiter allows a redraw.
//
// Thread-safety: Write is called from the turn goroutine while Flush runs
// in the Bubble Tea loop.
type StreamingBuffer struct {
	mu      sync.Mutex
	pending []model.Message
	index   map[string]int
	updates int

	batchSize int
	maxFPS    int
	limiter   *rate.Limiter
}

// NewStreamingBuffer creates a buffer. Out-of-range values fall back to
// 15 updates and 30 frames per second.
func NewStreamingBuffer(batchSize, maxFPS int) *StreamingBuffer {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if maxFPS <= 0 || maxFPS > maxMaxFPS {
		maxFPS = defaultMaxFPS
	}
	return &StreamingBuffer{
		index:     make(map[string]int),
		batchSize: batchSize,
		maxFPS:    maxFPS,
		limiter:   rate.NewLimiter(rate.Limit(maxFPS), 1),
	}
}

// Write records a snapshot, replacing any pending one for the same message.
func (sb *StreamingBuffer) Write(msg model.Message) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if i, ok := sb.index[msg.ID]; ok {
		sb.pending[i] = msg
	} else {
		sb.index[msg.ID] = len(sb.pending)
		sb.pending = append(sb.pending, msg)
	}
	sb.updates++
}

// Flush returns the pending snapshots if a redraw is due.
func (sb *StreamingBuffer) Flush() ([]model.Message, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if len(sb.pending) == 0 {
		return nil, false
	}
	if sb.updates < sb.batchSize && !sb.limiter.Allow() {
		return nil, false
	}
	return sb.takeLocked(), true
}

// ForceFlush returns the pending snapshots regardless of the limiter. Use
// it when a turn ends so the final state is drawn.
func (sb *StreamingBuffer) ForceFlush() ([]model.Message, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if len(sb.pending) == 0 {
		return nil, false
	}
	return sb.takeLocked(), true
}

func (sb *StreamingBuffer) takeLocked() []model.Message {
	out := sb.pending
	sb.pending = nil
	sb.index = make(map[string]int)
	sb.updates = 0
	return out
}

// Reset drops pending snapshots, e.g. when the conversation is cleared.
func (sb *StreamingBuffer) Reset() {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.takeLocked()
}

// SetBatchSize updates the batch size threshold.
func (sb *StreamingBuffer) SetBatchSize(size int) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	if size > 0 {
		sb.batchSize = size
	}
}

// SetMaxFPS updates the maximum frame rate.
func (sb *StreamingBuffer) SetMaxFPS(fps int) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	if fps > 0 && fps <= maxMaxFPS {
		sb.maxFPS = fps
		sb.limiter.SetLimit(rate.Limit(fps))
	}
}

// Interval returns the frame interval for the current rate.
func (sb *StreamingBuffer) Interval() time.Duration {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return time.Second / time.Duration(sb.maxFPS)
}

// =============================================================================
// STREAMING TICK COMMAND
// =============================================================================

// streamTickCmd schedules the next StreamTickMsg.
func streamTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}
