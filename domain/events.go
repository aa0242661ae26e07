package domain

import "time"

// Event subjects used when publishing to NATS.
const (
	SubjectDepotCaptured   = "manifestsync.depot.captured"
	SubjectAccountDisabled = "manifestsync.account.disabled"
	SubjectPassCompleted   = "manifestsync.pass.completed"
)

// DepotCapturedEvent is emitted after a depot manifest was committed and tagged.
type DepotCapturedEvent struct {
	// EventID is a unique identifier for this specific event instance.
	EventID string `json:"event_id"`

	// RunID identifies the process run that produced the event.
	RunID string `json:"run_id"`

	// Timestamp is when this event was generated.
	Timestamp time.Time `json:"timestamp"`

	App      AppID       `json:"app_id"`
	Depot    DepotID     `json:"depot_id"`
	Manifest ManifestGID `json:"manifest_gid"`

	// Commit is the hash of the commit holding the manifest.
	Commit string `json:"commit"`

	// Tag is the tag created for the capture.
	Tag string `json:"tag"`
}

// AccountDisabledEvent is emitted when an account is permanently disabled.
type AccountDisabledEvent struct {
	EventID   string    `json:"event_id"`
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`

	// Username is the account that was disabled.
	Username string `json:"username"`

	// Reason is the error code or condition that caused it.
	Reason string `json:"reason"`
}

// PassCompletedEvent summarizes one full pass over all accounts.
type PassCompletedEvent struct {
	EventID   string    `json:"event_id"`
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`

	Accounts    int  `json:"accounts"`
	Captured    int  `json:"captured"`
	Failed      int  `json:"failed"`
	Interrupted bool `json:"interrupted"`
}
