// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a loyalty-club member.
//
// The JSON tags match the remote snapshot's wire format (usuarios.json), which
// uses Spanish field names. The snapshot is authored at the venue and shared
// with the exporter, so we keep that format exactly rather than introducing a
// translation layer.
//
// WHY *Redemption AND NOT Redemption?
// LastRedemption is genuinely optional — most members have never redeemed.
// A pointer gives us a real "absent" state that round-trips through JSON as a
// missing field instead of a zero-value object.
//
// UpdatedAt is the only signal the reconciler uses to decide whether a local
// edit outranks the remote snapshot. Every mutation must stamp it; it is never
// allowed to move backwards.
type User struct {
	ID             string      `json:"id"`
	Name           string      `json:"nombre"`
	Phone          string      `json:"telefono"`
	Visits         int         `json:"visitas"`
	PasswordHash   string      `json:"passwordHash,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
	LastRedemption *Redemption `json:"lastRedeem,omitempty"`
}

// Redemption records the most recent promo a member cashed in.
type Redemption struct {
	PromoID string    `json:"promoId"`
	Date    time.Time `json:"date"`
}
