package models

// DeprivationRecord is one LSOA row of the Index of Multiple Deprivation.
// Rank 1 is the most deprived area; decile 1 the most deprived tenth.
type DeprivationRecord struct {
	AreaCode  string `gorm:"column:lsoa_code_11;type:text;primaryKey" json:"area_code"`
	AreaName  string `gorm:"column:lsoa_name_11;type:text;not null" json:"area_name"`
	IMDRank   int    `gorm:"column:imd_rank;type:int;not null" json:"imd_rank"`
	IMDDecile int    `gorm:"column:imd_decile;type:int;not null" json:"imd_decile"`
}

func (DeprivationRecord) TableName() string {
	return "imd19"
}
