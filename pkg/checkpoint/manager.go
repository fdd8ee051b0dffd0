package checkpoint

// DefaultInterval is the number of attempts between periodic saves.
const DefaultInterval = 10_000

// Manager throttles checkpoint writes to one per Interval attempts. It is
// owned by a single goroutine.
type Manager struct {
	Path     string
	Interval uint64
	RunID    string

	lastSaved uint64
}

// NewManager creates a manager writing to path every interval attempts.
// A zero interval selects DefaultInterval.
func NewManager(path string, interval uint64) *Manager {
	if interval == 0 {
		interval = DefaultInterval
	}

	return &Manager{Path: path, Interval: interval}
}

// Reset moves the save watermark to total, typically the attempt count
// restored from a checkpoint.
func (m *Manager) Reset(total uint64) {
	m.lastSaved = total
}

// LastSaved returns the attempt count of the last successful save.
func (m *Manager) LastSaved() uint64 {
	return m.lastSaved
}

// ShouldSave reports whether at least Interval attempts have passed since
// the last successful save.
func (m *Manager) ShouldSave(total uint64) bool {
	return total >= m.lastSaved && total-m.lastSaved >= m.Interval
}

// MaybeSave writes a checkpoint when one is due. It reports whether a
// write happened.
func (m *Manager) MaybeSave(offset uint64, ruleIndex uint, total uint64) (bool, error) {
	if !m.ShouldSave(total) {
		return false, nil
	}

	err := m.Save(offset, ruleIndex, total)
	if err != nil {
		return false, err
	}

	return true, nil
}

// Save writes a checkpoint unconditionally. The watermark only advances
// when the write succeeds.
func (m *Manager) Save(offset uint64, ruleIndex uint, total uint64) error {
	cp := New(offset, ruleIndex, total)
	cp.RunID = m.RunID

	err := Save(m.Path, cp)
	if err != nil {
		return err
	}

	m.lastSaved = total

	return nil
}

// Delete removes the managed checkpoint file.
func (m *Manager) Delete() error {
	return Delete(m.Path)
}
