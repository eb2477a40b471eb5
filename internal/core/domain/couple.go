package domain

import "time"

// Link issue kinds reported by reconciliation.
const (
	IssueMissingPartner = "missing_partner" // partner record no longer exists
	IssueOneSided       = "one_sided"       // partner reference is null
	IssueConflicting    = "conflicting"     // partner points at a third user
)

// Repair actions taken for a LinkIssue.
const (
	ActionNone        = "none"
	ActionRollForward = "roll_forward"
	ActionCleared     = "cleared"
)

// LinkIssue describes an asymmetric partner reference found by reconciliation.
type LinkIssue struct {
	UserID    string `json:"user_id"`
	PartnerID string `json:"partner_id"`
	Kind      string `json:"kind"`
	Action    string `json:"action"`
}

// ReconcileReport summarises one reconciliation pass.
type ReconcileReport struct {
	Checked int         `json:"checked"`
	Issues  []LinkIssue `json:"issues"`
}

// PartnerInfo is the public view of a partner.
type PartnerInfo struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// CoupleSummary is the dashboard header: names in display order and the
// relationship dates with their derived counters.
type CoupleSummary struct {
	PartnerNames         [2]string    `json:"partner_names"`
	MyName               string       `json:"my_name"`
	PartnerName          string       `json:"partner_name"`
	Partner              *PartnerInfo `json:"partner,omitempty"`
	AnniversaryDate      *time.Time   `json:"anniversary_date,omitempty"`
	RelationshipStart    *time.Time   `json:"relationship_start,omitempty"`
	DaysTogether         *int         `json:"days_together,omitempty"`
	NextAnniversary      *time.Time   `json:"next_anniversary,omitempty"`
	DaysUntilAnniversary *int         `json:"days_until_anniversary,omitempty"`
}
