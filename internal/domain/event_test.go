package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyncEvent_Validate(t *testing.T) {
	p := &Product{ID: "p1", Title: "Red Hoodie"}

	tests := []struct {
		name    string
		event   SyncEvent
		wantErr string
	}{
		{"created ok", CreatedEvent(p), ""},
		{"updated ok", UpdatedEvent(p), ""},
		{"deleted ok", DeletedEvent("p1"), ""},
		{"missing id", SyncEvent{Kind: SyncDeleted}, "id is required"},
		{"created without snapshot", SyncEvent{Kind: SyncCreated, ID: "p1"}, "requires a product snapshot"},
		{"snapshot id mismatch", SyncEvent{Kind: SyncUpdated, ID: "p2", Product: p}, "does not match"},
		{"unknown kind", SyncEvent{Kind: "upserted", ID: "p1"}, "unknown kind"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestEventConstructors(t *testing.T) {
	p := &Product{ID: "p1"}

	assert.Equal(t, SyncCreated, CreatedEvent(p).Kind)
	assert.Equal(t, "p1", CreatedEvent(p).ID)
	assert.Equal(t, SyncUpdated, UpdatedEvent(p).Kind)
	assert.Nil(t, DeletedEvent("p1").Product)
}
