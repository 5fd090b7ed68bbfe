// Package memory provides the in-memory process record store the master
// folds lifecycle transitions and reporting tuples into.
package memory

import (
	"context"
	"sync"

	"github.com/saquib-ali-khan/distalgo/internal/clock"
	"github.com/saquib-ali-khan/distalgo/service/dao"
	"github.com/saquib-ali-khan/distalgo/service/dao/criteria"
	"github.com/saquib-ali-khan/distalgo/service/dao/procinfo"
)

// Service is an in-memory dao.Service for process records. Fold operations
// run under the service lock, so lifecycle callbacks and the report
// collector never lose updates to each other. Load and List return copies.
type Service struct {
	mu      sync.RWMutex
	records map[string]*procinfo.Record
}

// New creates an empty record store.
func New() *Service {
	return &Service{records: make(map[string]*procinfo.Record)}
}

// Save stores or overwrites a record, stamping its timestamps.
func (s *Service) Save(_ context.Context, record *procinfo.Record) error {
	if record == nil {
		return dao.ErrNilEntity
	}
	if record.ID == "" {
		return dao.ErrInvalidID
	}
	now := clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *record
	if existing, ok := s.records[record.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	s.records[record.ID] = &stored
	return nil
}

// Load returns a copy of the record for id, nil when absent.
func (s *Service) Load(_ context.Context, id string) (*procinfo.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	ret := *record
	return &ret, nil
}

// Delete removes the record for id.
func (s *Service) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

// List returns copies of the records passing the supplied parameters,
// filterable by State and Type.
func (s *Service) List(_ context.Context, parameters ...*dao.Parameter) ([]*procinfo.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*procinfo.Record, 0, len(s.records))
	for _, record := range s.records {
		if !criteria.Filter(record.State, record.Type, parameters) {
			continue
		}
		ret := *record
		out = append(out, &ret)
	}
	return out, nil
}

// Describe upserts the identity fields for id. Counters and state already
// folded into the record are preserved.
func (s *Service) Describe(_ context.Context, id, name, typeName, parentID string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	record := s.upsert(id)
	record.Name = name
	record.Type = typeName
	record.ParentID = parentID
	record.UpdatedAt = clock.Now()
	return nil
}

// UpdateState upserts the lifecycle state and exit code for id.
func (s *Service) UpdateState(_ context.Context, id, state string, exitCode int) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	record := s.upsert(id)
	record.State = state
	record.ExitCode = exitCode
	record.UpdatedAt = clock.Now()
	return nil
}

// Fold upserts one reporting tuple into the record for id.
func (s *Service) Fold(_ context.Context, id, tag string, value float64) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	record := s.upsert(id)
	record.Fold(tag, value)
	record.UpdatedAt = clock.Now()
	return nil
}

func (s *Service) upsert(id string) *procinfo.Record {
	record, ok := s.records[id]
	if !ok {
		record = &procinfo.Record{ID: id, CreatedAt: clock.Now()}
		s.records[id] = record
	}
	return record
}

var _ dao.Service[string, procinfo.Record] = &Service{}
