package statemanager

import (
	"sync"

	"spot-grid-bot-go/internal/models"
	"spot-grid-bot-go/internal/persistence"

	"go.uber.org/zap"
)

// Manager owns the position state between trade cycles. The trading loop
// is the single writer: it loads the state once at the top of each
// evaluation cycle and commits every mutation synchronously before the
// cycle ends. Foreign readers may take a best-effort snapshot at any time.
type Manager struct {
	mu     sync.RWMutex
	state  *models.PositionState
	repo   persistence.StateRepository
	logger *zap.SugaredLogger
}

// NewManager creates a Manager on top of the given repository.
func NewManager(repo persistence.StateRepository, logger *zap.SugaredLogger) *Manager {
	return &Manager{repo: repo, logger: logger}
}

// LoadOrInit returns the persisted state, falling back to a fresh state
// centered on firstPrice when nothing is stored. Unreadable or corrupted
// storage is logged and degrades to the same fresh state; it never stops
// the loop.
func (m *Manager) LoadOrInit(firstPrice float64) *models.PositionState {
	state, err := m.repo.Load()
	if err != nil {
		m.logger.Errorf("加载持仓状态失败，回退到默认状态: %v", err)
		state = nil
	}
	if state == nil {
		state = models.NewPositionState(firstPrice)
	}
	if state.GridCenter <= 0 {
		// grid_center must always be defined; old files may predate it
		state.GridCenter = firstPrice
	}

	m.mu.Lock()
	m.state = state.Clone()
	m.mu.Unlock()
	return state
}

// Commit persists the given state and publishes it as the current
// snapshot. A persistence failure is logged and the in-memory copy kept;
// storage trouble never stops the trading loop.
func (m *Manager) Commit(state *models.PositionState) {
	m.mu.Lock()
	m.state = state.Clone()
	m.mu.Unlock()

	if err := m.repo.Save(state); err != nil {
		m.logger.Errorf("持久化持仓状态失败，继续使用内存副本: %v", err)
	}
}

// Snapshot returns a copy of the last committed state for read-only
// observers. It may lag the writer; stale reads are acceptable.
func (m *Manager) Snapshot() *models.PositionState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return nil
	}
	return m.state.Clone()
}

// Close releases the underlying repository.
func (m *Manager) Close() error {
	return m.repo.Close()
}
