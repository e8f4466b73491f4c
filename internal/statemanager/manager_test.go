package statemanager

import (
	"errors"
	"sync"
	"testing"

	"spot-grid-bot-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockStateRepository is a mock implementation of the StateRepository
// interface for testing.
type mockStateRepository struct {
	sync.Mutex
	savedState *models.PositionState
	saveCalls  int
	loadState  *models.PositionState
	loadError  error
	saveError  error
}

func (m *mockStateRepository) Save(state *models.PositionState) error {
	m.Lock()
	defer m.Unlock()
	m.saveCalls++
	m.savedState = state.Clone()
	return m.saveError
}

func (m *mockStateRepository) Load() (*models.PositionState, error) {
	m.Lock()
	defer m.Unlock()
	return m.loadState, m.loadError
}

func (m *mockStateRepository) Close() error { return nil }

func (m *mockStateRepository) saved() (*models.PositionState, int) {
	m.Lock()
	defer m.Unlock()
	return m.savedState, m.saveCalls
}

func TestLoadOrInitFreshState(t *testing.T) {
	repo := &mockStateRepository{}
	m := NewManager(repo, zap.NewNop().Sugar())

	state := m.LoadOrInit(1.25)
	require.NotNil(t, state)
	assert.Equal(t, 1.25, state.GridCenter, "grid center initializes to the first observed price")
	assert.Equal(t, 0.0, state.LastBuyPrice)
	assert.Equal(t, 0.0, state.PeakPriceAfterBuy)
	assert.False(t, state.HasOpenEntry())
}

func TestLoadOrInitReturnsStoredState(t *testing.T) {
	repo := &mockStateRepository{
		loadState: &models.PositionState{GridCenter: 2.0, LastBuyPrice: 1.9, PeakPriceAfterBuy: 2.1},
	}
	m := NewManager(repo, zap.NewNop().Sugar())

	state := m.LoadOrInit(9.99)
	assert.Equal(t, 2.0, state.GridCenter, "stored state wins over the observed price")
	assert.True(t, state.HasOpenEntry())
}

func TestLoadOrInitFallsBackOnCorruption(t *testing.T) {
	repo := &mockStateRepository{loadError: errors.New("state file is corrupted")}
	m := NewManager(repo, zap.NewNop().Sugar())

	state := m.LoadOrInit(3.5)
	require.NotNil(t, state, "corruption must never stop the loop")
	assert.Equal(t, 3.5, state.GridCenter)
	assert.Equal(t, 0.0, state.LastBuyPrice)
}

func TestCommitPersistsSynchronously(t *testing.T) {
	repo := &mockStateRepository{}
	m := NewManager(repo, zap.NewNop().Sugar())

	state := m.LoadOrInit(1.0)
	state.LastBuyPrice = 1.0
	state.PeakPriceAfterBuy = 1.0
	m.Commit(state)

	saved, calls := repo.saved()
	require.Equal(t, 1, calls, "Commit must persist before returning")
	assert.Equal(t, state, saved)

	snap := m.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, state, snap)
}

func TestCommitToleratesSaveFailure(t *testing.T) {
	repo := &mockStateRepository{saveError: errors.New("disk full")}
	m := NewManager(repo, zap.NewNop().Sugar())

	state := m.LoadOrInit(1.0)
	state.GridCenter = 2.0
	m.Commit(state)

	// The in-memory copy stays authoritative even when the disk write fails.
	snap := m.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, 2.0, snap.GridCenter)
}

func TestSnapshotIsACopy(t *testing.T) {
	repo := &mockStateRepository{}
	m := NewManager(repo, zap.NewNop().Sugar())
	m.LoadOrInit(1.0)

	snap := m.Snapshot()
	snap.GridCenter = 42.0

	assert.Equal(t, 1.0, m.Snapshot().GridCenter, "mutating a snapshot must not leak back")
}
