package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"imdcheck/internal/models"

	"gorm.io/gorm"
)

var ErrDataUnavailable = errors.New("dataset unavailable")

const defaultBatchSize = 500

type LookupOptions struct {
	PostcodeTable    string
	DeprivationTable string
	// BatchSize bounds the number of postcodes bound into one statement.
	BatchSize int
}

type LookupResult struct {
	// Searched is false when no postcodes were submitted and no query ran.
	Searched bool
	Rows     []models.ResultRow
}

func (r LookupResult) Empty() bool {
	return len(r.Rows) == 0
}

type LookupService struct {
	db               *gorm.DB
	logger           *slog.Logger
	postcodeTable    string
	deprivationTable string
	batchSize        int
}

func NewLookupService(db *gorm.DB, logger *slog.Logger, opts LookupOptions) (*LookupService, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if logger == nil {
		return nil, errors.New("logger is nil")
	}

	postcodeTable := opts.PostcodeTable
	if postcodeTable == "" {
		postcodeTable = models.PostcodeRecord{}.TableName()
	}
	deprivationTable := opts.DeprivationTable
	if deprivationTable == "" {
		deprivationTable = models.DeprivationRecord{}.TableName()
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	return &LookupService{
		db:               db,
		logger:           logger,
		postcodeTable:    postcodeTable,
		deprivationTable: deprivationTable,
		batchSize:        batchSize,
	}, nil
}

// Lookup returns the deprivation rows for the given postcodes whose decile is
// at most maxDecile. Rows follow the order the postcodes were submitted in.
// Any datastore failure is reported as ErrDataUnavailable with no rows.
func (s *LookupService) Lookup(ctx context.Context, postcodes []string, maxDecile *int) (LookupResult, error) {
	if s == nil {
		return LookupResult{}, errors.New("lookup service is nil")
	}
	if s.db == nil {
		return LookupResult{}, errors.New("db is nil")
	}

	normalized := NormalizePostcodes(postcodes)
	if len(normalized) == 0 {
		return LookupResult{}, nil
	}
	decile := ClampDecile(maxDecile)

	var rows []models.ResultRow
	for start := 0; start < len(normalized); start += s.batchSize {
		end := min(start+s.batchSize, len(normalized))
		batch := normalized[start:end]

		var count int64
		if err := s.matchQuery(ctx, batch, decile).Count(&count).Error; err != nil {
			s.logger.Error("count matching postcodes", "postcodes", len(batch), "error", err)
			return LookupResult{Searched: true}, fmt.Errorf("%w: count postcodes: %w", ErrDataUnavailable, err)
		}
		if count == 0 {
			continue
		}

		var batchRows []models.ResultRow
		err := s.matchQuery(ctx, batch, decile).
			Select("onspd.pcds, imd.lsoa_name_11, imd.imd_rank, imd.imd_decile").
			Scan(&batchRows).Error
		if err != nil {
			s.logger.Error("select matching postcodes", "postcodes", len(batch), "error", err)
			return LookupResult{Searched: true}, fmt.Errorf("%w: select postcodes: %w", ErrDataUnavailable, err)
		}
		rows = append(rows, batchRows...)
	}

	sortBySubmission(rows, normalized)

	s.logger.Debug("postcode lookup",
		"submitted", len(normalized),
		"matched", len(rows),
		"max_decile", decile,
	)

	return LookupResult{Searched: true, Rows: rows}, nil
}

// matchQuery builds the filtered join. Postcodes and the decile are always
// bound as parameters; only the validated table names are part of the SQL.
func (s *LookupService) matchQuery(ctx context.Context, postcodes []string, decile int) *gorm.DB {
	return s.db.WithContext(ctx).
		Table(s.postcodeTable+" AS onspd").
		Joins("INNER JOIN "+s.deprivationTable+" AS imd ON imd.lsoa_code_11 = onspd.lsoa11").
		Where("onspd.pcds IN ?", postcodes).
		Where("imd.imd_decile <= ?", decile)
}

func sortBySubmission(rows []models.ResultRow, postcodes []string) {
	if len(rows) < 2 {
		return
	}

	position := make(map[string]int, len(postcodes))
	for i, postcode := range postcodes {
		position[postcode] = i
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return position[rows[i].Postcode] < position[rows[j].Postcode]
	})
}
