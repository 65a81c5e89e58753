package model

import "time"

// ActionKind identifies what a pending action changed.
type ActionKind string

// The four mutations the service layer records.
const (
	ActionAddVisit    ActionKind = "add-visit"
	ActionRedeemPromo ActionKind = "redeem-promo"
	ActionCreateUser  ActionKind = "create-user"
	ActionUpdateUser  ActionKind = "update-user"
)

// PendingAction is one entry in the append-only log of local mutations that
// have not yet been confirmed as persisted externally.
//
// Seq is assigned by the store on append (auto-increment), not by the caller —
// the log is sequence-keyed, unlike the id-keyed user and promo tables. The
// persisted document omits it (the seq column is authoritative); responses
// carry it so the external exporter can checkpoint individual entries.
// Entries are never updated or deleted during normal operation; the external
// exporter drains the log after it has written the user table somewhere safe.
//
// PromoID is only set for redeem-promo actions.
type PendingAction struct {
	Seq       int64      `json:"seq,omitempty"`
	Kind      ActionKind `json:"type"`
	UserID    string     `json:"userId"`
	PromoID   string     `json:"promoId,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}
