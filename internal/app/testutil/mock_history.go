package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"

	"green-needle/internal/app/model"
	"green-needle/internal/app/repository"
)

// MockHistory is an in-memory repository.HistoryDAO. It stores records in
// insertion order and can be told to fail individual methods, which is how
// tests drive the history failure paths without a broken database.
type MockHistory struct {
	mu      sync.RWMutex
	records []model.HistoryRecord
	nextID  int
	errs    map[string]error
	closed  bool
}

var _ repository.HistoryDAO = (*MockHistory)(nil)

func NewMockHistory() *MockHistory {
	return &MockHistory{nextID: 1, errs: make(map[string]error)}
}

// FailWith makes the named method ("Record", "Search", ...) return err.
func (m *MockHistory) FailWith(method string, err error) *MockHistory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[method] = err
	return m
}

// Seed inserts records directly, assigning ids.
func (m *MockHistory) Seed(records ...model.HistoryRecord) *MockHistory {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, record := range records {
		record.ID = m.nextID
		m.nextID++
		m.records = append(m.records, record)
	}
	return m
}

// Records returns a copy of everything stored so far.
func (m *MockHistory) Records() []model.HistoryRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.HistoryRecord, len(m.records))
	copy(out, m.records)
	return out
}

// Closed reports whether Close has been called.
func (m *MockHistory) Closed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

func (m *MockHistory) Record(_ context.Context, record *model.HistoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs["Record"]; err != nil {
		return err
	}
	stored := *record
	stored.ID = m.nextID
	m.nextID++
	m.records = append(m.records, stored)
	return nil
}

func (m *MockHistory) HasProcessed(_ context.Context, fileName, fileHash string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.errs["HasProcessed"]; err != nil {
		return false, err
	}
	for _, record := range m.records {
		if record.HasError {
			continue
		}
		if record.FileName == fileName {
			return true, nil
		}
		if fileHash != "" && record.FileHash == fileHash {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockHistory) GetByID(_ context.Context, id int) (*model.HistoryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.errs["GetByID"]; err != nil {
		return nil, err
	}
	for _, record := range m.records {
		if record.ID == id {
			found := record
			return &found, nil
		}
	}
	return nil, nil
}

func (m *MockHistory) GetRecent(_ context.Context, limit int) ([]model.HistoryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.errs["GetRecent"]; err != nil {
		return nil, err
	}
	return m.newestFirst(limit, func(model.HistoryRecord) bool { return true }), nil
}

func (m *MockHistory) GetBySource(_ context.Context, source string, limit int) ([]model.HistoryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.errs["GetBySource"]; err != nil {
		return nil, err
	}
	return m.newestFirst(limit, func(r model.HistoryRecord) bool { return r.Source == source }), nil
}

func (m *MockHistory) Search(_ context.Context, term string, limit int) ([]model.HistoryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.errs["Search"]; err != nil {
		return nil, err
	}
	needle := strings.ToLower(term)
	return m.newestFirst(limit, func(r model.HistoryRecord) bool {
		return strings.Contains(strings.ToLower(r.Text), needle) ||
			strings.Contains(strings.ToLower(r.FileName), needle)
	}), nil
}

func (m *MockHistory) StatsBySource(_ context.Context) ([]repository.SourceStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.errs["StatsBySource"]; err != nil {
		return nil, err
	}
	bySource := make(map[string]*repository.SourceStats)
	for _, record := range m.records {
		if record.HasError {
			continue
		}
		stats, ok := bySource[record.Source]
		if !ok {
			stats = &repository.SourceStats{Source: record.Source}
			bySource[record.Source] = stats
		}
		stats.Files++
		stats.Duration += record.AudioDuration
	}
	out := make([]repository.SourceStats, 0, len(bySource))
	for _, stats := range bySource {
		out = append(out, *stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Files > out[j].Files })
	return out, nil
}

func (m *MockHistory) Count(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.errs["Count"]; err != nil {
		return 0, err
	}
	return int64(len(m.records)), nil
}

func (m *MockHistory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs["Close"]; err != nil {
		return err
	}
	m.closed = true
	return nil
}

// newestFirst returns matching records in reverse insertion order. Callers
// hold the read lock.
func (m *MockHistory) newestFirst(limit int, match func(model.HistoryRecord) bool) []model.HistoryRecord {
	var out []model.HistoryRecord
	for i := len(m.records) - 1; i >= 0; i-- {
		if !match(m.records[i]) {
			continue
		}
		out = append(out, m.records[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
