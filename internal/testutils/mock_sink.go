package testutils

import "sync"

// RowEvent captures a single structural change applied to a progress row.
type RowEvent struct {
	ID    string
	Label string
	Total int64
	OK    bool
}

// MockSink implements progress.Sink for testing. All events are
// recorded under a mutex because download monitors feed the sink from
// their own goroutines.
type MockSink struct {
	mu sync.Mutex

	AddedRows   []RowEvent
	Totals      []RowEvent
	Advanced    map[string]int64
	RemovedRows []string
	Finished    []RowEvent
	Lines       []string
}

func NewMockSink() *MockSink {
	return &MockSink{
		Advanced: make(map[string]int64),
	}
}

func (m *MockSink) AddRow(id, label string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AddedRows = append(m.AddedRows, RowEvent{ID: id, Label: label})
}

func (m *MockSink) SetTotal(id string, total int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Totals = append(m.Totals, RowEvent{ID: id, Total: total})
}

func (m *MockSink) Advance(id string, n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Advanced[id] += n
}

func (m *MockSink) RemoveRow(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RemovedRows = append(m.RemovedRows, id)
}

func (m *MockSink) FinishRow(id string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Finished = append(m.Finished, RowEvent{ID: id, OK: ok})
}

func (m *MockSink) Println(line string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Lines = append(m.Lines, line)
}

// Received returns the byte count advanced for a row.
func (m *MockSink) Received(id string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Advanced[id]
}

// RowID returns the id of the nth added row, or an empty string.
func (m *MockSink) RowID(n int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n < 0 || n >= len(m.AddedRows) {
		return ""
	}
	return m.AddedRows[n].ID
}

// GetLastLine returns the most recently printed status line, or nil if none.
func (m *MockSink) GetLastLine() *string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Lines) == 0 {
		return nil
	}
	return &m.Lines[len(m.Lines)-1]
}
