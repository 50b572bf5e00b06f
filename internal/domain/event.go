package domain

import (
	"errors"
	"fmt"
)

// SyncKind identifies the catalog mutation a SyncEvent describes.
type SyncKind string

const (
	SyncCreated SyncKind = "created"
	SyncUpdated SyncKind = "updated"
	SyncDeleted SyncKind = "deleted"
)

// SyncEvent is the ephemeral notification handed from the catalog write path
// to the sync coordinator. It is never persisted and is consumed exactly once.
// Created and Updated events carry the full product snapshot as of the write;
// Deleted events carry only the identifier.
type SyncEvent struct {
	Kind    SyncKind
	ID      string
	Product *Product
}

// CreatedEvent builds a SyncEvent for a newly created product.
func CreatedEvent(p *Product) SyncEvent {
	return SyncEvent{Kind: SyncCreated, ID: p.ID, Product: p}
}

// UpdatedEvent builds a SyncEvent for an updated product.
func UpdatedEvent(p *Product) SyncEvent {
	return SyncEvent{Kind: SyncUpdated, ID: p.ID, Product: p}
}

// DeletedEvent builds a SyncEvent for a deleted product.
func DeletedEvent(id string) SyncEvent {
	return SyncEvent{Kind: SyncDeleted, ID: id}
}

// Validate checks the structural invariants of the event before propagation.
func (e SyncEvent) Validate() error {
	if e.ID == "" {
		return errors.New("sync event: id is required")
	}
	switch e.Kind {
	case SyncCreated, SyncUpdated:
		if e.Product == nil {
			return fmt.Errorf("sync event: %s requires a product snapshot", e.Kind)
		}
		if e.Product.ID != e.ID {
			return fmt.Errorf("sync event: snapshot id %q does not match event id %q", e.Product.ID, e.ID)
		}
	case SyncDeleted:
		// no payload
	default:
		return fmt.Errorf("sync event: unknown kind %q", e.Kind)
	}
	return nil
}
