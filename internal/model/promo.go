package model

// Promotion is a reward members can redeem visits against.
//
// Promotions are read-only on this side: they arrive in the remote snapshot
// (promociones.json) and are replaced wholesale on every successful sync.
// There is no client-side promo mutation path, so no timestamps are needed.
type Promotion struct {
	ID             string `json:"id"`
	Title          string `json:"titulo"`
	Description    string `json:"descripcion"`
	VisitsRequired int    `json:"visitasRequeridas"`
}
