// Package domain defines the core types and collaborator interfaces shared
// across the ring-detection pipeline and its ambient transport/storage shell.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single validated bank transaction. It is immutable once
// constructed; the pipeline never mutates a Transaction, only the
// AccountRecord and Ring state derived from a batch of them.
type Transaction struct {
	ID         string          `json:"transactionId"`
	SenderID   string          `json:"senderId"`
	ReceiverID string          `json:"receiverId"`
	Amount     decimal.Decimal `json:"amount"`
	Timestamp  time.Time       `json:"timestamp"`
}

// TransactionBatch is the API/CLI request payload for an analysis run.
type TransactionBatch struct {
	Transactions []Transaction `json:"transactions"`
	Mode         DetectionMode `json:"mode,omitempty"`
}

// DetectionMode selects which pattern detectors run during a pipeline pass.
// Disabled detectors produce empty results; downstream passes still run on
// whatever was produced (spec.md §6).
type DetectionMode string

const (
	ModeAll    DetectionMode = "all"
	ModeCycles DetectionMode = "cycles"
	ModeFanIn  DetectionMode = "fan-in"
	ModeFanOut DetectionMode = "fan-out"
	ModeShell  DetectionMode = "shell"
)

// Normalize returns ModeAll for an empty/unrecognized value, matching the
// teacher's permissive default-config idiom.
func (m DetectionMode) Normalize() DetectionMode {
	switch m {
	case ModeCycles, ModeFanIn, ModeFanOut, ModeShell, ModeAll:
		return m
	default:
		return ModeAll
	}
}

// RunsCycles reports whether CycleDetector should execute for this mode.
func (m DetectionMode) RunsCycles() bool { return m.Normalize() == ModeAll || m == ModeCycles }

// RunsFanIn reports whether FanInDetector should execute for this mode.
func (m DetectionMode) RunsFanIn() bool { return m.Normalize() == ModeAll || m == ModeFanIn }

// RunsFanOut reports whether FanOutDetector should execute for this mode.
func (m DetectionMode) RunsFanOut() bool { return m.Normalize() == ModeAll || m == ModeFanOut }

// RunsShell reports whether ShellChainDetector should execute for this mode.
func (m DetectionMode) RunsShell() bool { return m.Normalize() == ModeAll || m == ModeShell }
