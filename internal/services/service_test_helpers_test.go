package services

import (
	"io"
	"log/slog"
	"testing"

	"imdcheck/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}

	// Every new connection to :memory: is a separate database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func createDatasetTables(t *testing.T, db *gorm.DB) {
	t.Helper()

	queries := []string{
		"CREATE TABLE onspd_aug19 (pcds TEXT PRIMARY KEY, lsoa11 TEXT NOT NULL)",
		"CREATE TABLE imd19 (lsoa_code_11 TEXT PRIMARY KEY, lsoa_name_11 TEXT NOT NULL, imd_rank INTEGER NOT NULL, imd_decile INTEGER NOT NULL)",
	}
	for _, query := range queries {
		if err := db.Exec(query).Error; err != nil {
			t.Fatalf("create dataset table: %v", err)
		}
	}
}

func seedDataset(t *testing.T, db *gorm.DB) {
	t.Helper()

	createDatasetTables(t, db)

	areas := []models.DeprivationRecord{
		{AreaCode: "E01021000", AreaName: "Rother 010A", IMDRank: 12000, IMDDecile: 4},
		{AreaCode: "E01016900", AreaName: "Brighton and Hove 001A", IMDRank: 2500, IMDDecile: 1},
		{AreaCode: "E01004736", AreaName: "Westminster 018C", IMDRank: 30000, IMDDecile: 10},
	}
	if err := db.Create(&areas).Error; err != nil {
		t.Fatalf("insert areas: %v", err)
	}

	postcodes := []models.PostcodeRecord{
		{Postcode: "TN33 0PF", AreaCode: "E01021000"},
		{Postcode: "BN4 1UH", AreaCode: "E01016900"},
		{Postcode: "BN1 1AA", AreaCode: "E01016900"},
		{Postcode: "SW1A 1AA", AreaCode: "E01004736"},
		{Postcode: "XX1 1XX", AreaCode: "W01000001"},
	}
	if err := db.Create(&postcodes).Error; err != nil {
		t.Fatalf("insert postcodes: %v", err)
	}
}

var (
	rowTN33 = models.ResultRow{Postcode: "TN33 0PF", AreaName: "Rother 010A", IMDRank: 12000, IMDDecile: 4}
	rowBN4  = models.ResultRow{Postcode: "BN4 1UH", AreaName: "Brighton and Hove 001A", IMDRank: 2500, IMDDecile: 1}
	rowBN1  = models.ResultRow{Postcode: "BN1 1AA", AreaName: "Brighton and Hove 001A", IMDRank: 2500, IMDDecile: 1}
	rowSW1A = models.ResultRow{Postcode: "SW1A 1AA", AreaName: "Westminster 018C", IMDRank: 30000, IMDDecile: 10}
)

func intPtr(v int) *int {
	return &v
}
