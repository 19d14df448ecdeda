package schedule

import (
	"context"
	"sort"
	"sync"
)

// MemorySource keeps schedules in process. Used when no database is configured and in tests.
type MemorySource struct {
	mu        sync.RWMutex
	schedules map[string]Schedule
}

func NewMemorySource(schedules ...Schedule) *MemorySource {
	m := &MemorySource{schedules: make(map[string]Schedule)}
	for _, s := range schedules {
		m.schedules[s.Department] = s
	}
	return m
}

func (m *MemorySource) GetSchedule(_ context.Context, department string) (Schedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.schedules[department]
	if !ok {
		return Schedule{}, &NotFoundError{Department: department}
	}
	return s, nil
}

func (m *MemorySource) ListDepartments(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.schedules))
	for d := range m.schedules {
		out = append(out, d)
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemorySource) Upsert(_ context.Context, s Schedule) error {
	if err := validate(s); err != nil {
		return err
	}
	m.mu.Lock()
	m.schedules[s.Department] = s
	m.mu.Unlock()
	return nil
}
