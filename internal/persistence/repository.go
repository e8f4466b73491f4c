package persistence

import "spot-grid-bot-go/internal/models"

// StateRepository defines the interface for position state persistence.
// It abstracts the underlying storage mechanism (JSON file, BadgerDB)
// from the rest of the application.
type StateRepository interface {
	// Save atomically persists the position state. A reader must never be
	// able to observe a partially written state.
	Save(state *models.PositionState) error

	// Load returns the stored state.
	// If no state is found, it returns (nil, nil).
	Load() (*models.PositionState, error)

	// Close releases the underlying storage.
	Close() error
}
