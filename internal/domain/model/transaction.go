package model

import "time"

// TransactionEvent mirrors a checkout session lifecycle change for reporting.
// Append-only from checkout's perspective; recording one is always
// best-effort and never blocks a state transition.
type TransactionEvent struct {
	ID        string // ULID; lexically sortable, keeps the reporting log ordered
	SessionID string
	Amount    int64 // cents
	Currency  string
	Status    SessionStatus
	Reason    string // optional failure reason, verbatim from the processor
	At        time.Time
}
