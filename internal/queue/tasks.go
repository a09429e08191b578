package queue

const (
	// TypeAuditPurge sweeps anonymized request records past their retention
	// window.
	TypeAuditPurge = "audit:purge"
)

type AuditPurgePayload struct {
	// Reason distinguishes scheduled sweeps from operator-triggered ones in
	// worker logs.
	Reason string `json:"reason,omitempty"`
}
