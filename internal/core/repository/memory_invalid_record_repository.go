package repository

import (
	"sync"

	"fieldtrack/internal/core/model"
)

type inMemoryInvalidRecordRepository struct {
	records []*model.InvalidRecord
	mutex   sync.RWMutex
}

func NewInMemoryInvalidRecordRepository() InvalidRecordRepository {
	return &inMemoryInvalidRecordRepository{}
}

func (r *inMemoryInvalidRecordRepository) Create(record *model.InvalidRecord) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.records = append(r.records, record)
	return nil
}

func (r *inMemoryInvalidRecordRepository) FindRecent(limit int) ([]*model.InvalidRecord, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	// Newest first.
	result := make([]*model.InvalidRecord, 0, len(r.records))
	for i := len(r.records) - 1; i >= 0; i-- {
		result = append(result, r.records[i])
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}
