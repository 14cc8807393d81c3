package models

// PostcodeRecord is one row of the ONS Postcode Directory extract.
type PostcodeRecord struct {
	Postcode string `gorm:"column:pcds;type:text;primaryKey" json:"postcode"`
	AreaCode string `gorm:"column:lsoa11;type:text;not null;index" json:"area_code"`
}

func (PostcodeRecord) TableName() string {
	return "onspd_aug19"
}
