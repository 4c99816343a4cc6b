// Package models defines the shared record types persisted by claudekit.
package models

import "time"

// InstalledAtLayout is the timestamp layout used for Registration.InstalledAt.
const InstalledAtLayout = "2006-01-02T15:04:05.000"

// Registration is the metadata entry recording that a component is installed.
// The metadata store maps it to and from the document by hand, so every
// codec sees the same keys.
type Registration struct {
	Version     string `json:"version"`
	Category    string `json:"category,omitempty"`
	FilesCount  int    `json:"files_count"`
	InstalledAt string `json:"installed_at,omitempty"`
	Installed   bool   `json:"installed"`
}

// Item is one installed artifact as shown in summaries.
type Item struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Path        string `json:"path"`
}

// Operation names recorded in the journal.
const (
	OpInstall   = "install"
	OpUpdate    = "update"
	OpUninstall = "uninstall"
)

// Outcomes recorded in the journal.
const (
	OutcomeSuccess    = "success"
	OutcomeFailure    = "failure"
	OutcomeNoOp       = "noop"
	OutcomeRolledBack = "rolled_back"
)

// JournalEntry is one recorded lifecycle run.
type JournalEntry struct {
	ID          string    `json:"id"`
	Component   string    `json:"component"`
	Operation   string    `json:"operation"`
	Outcome     string    `json:"outcome"`
	FromVersion string    `json:"from_version,omitempty"`
	ToVersion   string    `json:"to_version,omitempty"`
	Files       int       `json:"files"`
	Checksum    string    `json:"checksum,omitempty"`
	Error       string    `json:"error,omitempty"`
	At          time.Time `json:"at"`
}
