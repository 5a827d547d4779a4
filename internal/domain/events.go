package domain

// Signal bus channels carrying scan events to subscribers.
const (
	ChannelProgress      = "scan:progress"
	ChannelError         = "scan:error"
	ChannelOpportunities = "opportunities"
)

// Error codes carried by ErrorEvent so subscribers can distinguish "quota
// exhausted" from "cannot reach upstream at all".
const (
	ErrCodeCredentialsExhausted = "credentials_exhausted"
	ErrCodeDiscoveryFailed      = "discovery_failed"
)

// ProgressEvent is emitted at least once per sport processed during a run.
type ProgressEvent struct {
	RunID          string `json:"run_id"`
	Message        string `json:"message"`
	MatchesScanned int    `json:"matches_scanned"`
	SportsTotal    int    `json:"sports_total,omitempty"`
}

// ErrorEvent is emitted on unrecoverable run failures.
type ErrorEvent struct {
	RunID   string `json:"run_id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SnapshotEvent is the full result set published once per completed run, and
// replayed to every new subscriber.
type SnapshotEvent struct {
	Opportunities []Opportunity `json:"opportunities"`
	Stats         RunStats      `json:"stats"`
}
