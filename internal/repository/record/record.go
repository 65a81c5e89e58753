// Package record implements the repository interfaces on top of the record
// store. Each repository owns one logical table and does nothing beyond
// marshalling models to and from the store's JSON documents — every byte that
// hits disk goes through internal/store.
package record

import "github.com/sakif/loyalty-club/internal/store"

// Repositories bundles the four typed repositories sharing one store.
type Repositories struct {
	Users   *UserRepo
	Promos  *PromoRepo
	Pending *PendingRepo
	Meta    *MetaRepo
}

// New wires the typed repositories over s.
func New(s *store.Store) *Repositories {
	return &Repositories{
		Users:   &UserRepo{store: s},
		Promos:  &PromoRepo{store: s},
		Pending: &PendingRepo{store: s},
		Meta:    &MetaRepo{store: s},
	}
}
