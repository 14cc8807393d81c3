package models

type ResultRow struct {
	Postcode  string `gorm:"column:pcds" json:"postcode"`
	AreaName  string `gorm:"column:lsoa_name_11" json:"area_name"`
	IMDRank   int    `gorm:"column:imd_rank" json:"imd_rank"`
	IMDDecile int    `gorm:"column:imd_decile" json:"imd_decile"`
}
