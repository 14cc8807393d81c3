package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"
)

type DatasetStatus struct {
	CheckedAt time.Time `json:"checked_at"`
	Available bool      `json:"available"`
	Postcodes int64     `json:"postcodes"`
	Areas     int64     `json:"areas"`
	Error     string    `json:"error,omitempty"`
}

// ProbeService counts the reference tables on demand and keeps the last
// outcome for the health endpoint.
type ProbeService struct {
	db               *gorm.DB
	logger           *slog.Logger
	postcodeTable    string
	deprivationTable string

	mu     sync.RWMutex
	status DatasetStatus
}

func NewProbeService(db *gorm.DB, logger *slog.Logger, postcodeTable string, deprivationTable string) (*ProbeService, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if logger == nil {
		return nil, errors.New("logger is nil")
	}
	if postcodeTable == "" || deprivationTable == "" {
		return nil, errors.New("table name is empty")
	}

	return &ProbeService{
		db:               db,
		logger:           logger,
		postcodeTable:    postcodeTable,
		deprivationTable: deprivationTable,
	}, nil
}

func (s *ProbeService) Probe(ctx context.Context) (DatasetStatus, error) {
	if s == nil {
		return DatasetStatus{}, errors.New("probe service is nil")
	}

	status := DatasetStatus{CheckedAt: time.Now().UTC()}
	err := s.countTables(ctx, &status)
	if err != nil {
		status.Error = err.Error()
		s.logger.Warn("dataset probe failed", "error", err)
	} else {
		status.Available = true
		s.logger.Debug("dataset probe", "postcodes", status.Postcodes, "areas", status.Areas)
	}

	s.mu.Lock()
	s.status = status
	s.mu.Unlock()

	if err != nil {
		return status, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
	}
	return status, nil
}

// Status returns the outcome of the most recent probe. CheckedAt is zero
// before the first probe.
func (s *ProbeService) Status() DatasetStatus {
	if s == nil {
		return DatasetStatus{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *ProbeService) countTables(ctx context.Context, status *DatasetStatus) error {
	if err := s.db.WithContext(ctx).Table(s.postcodeTable).Count(&status.Postcodes).Error; err != nil {
		return fmt.Errorf("count %s: %w", s.postcodeTable, err)
	}
	if err := s.db.WithContext(ctx).Table(s.deprivationTable).Count(&status.Areas).Error; err != nil {
		return fmt.Errorf("count %s: %w", s.deprivationTable, err)
	}
	return nil
}
