package models

// Unit is a static catalog entry students can enrol in.
type Unit struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"size:20;uniqueIndex;not null" json:"code"`
	Name string `gorm:"size:200;not null" json:"name"`
}

// Course groups the units offered to a degree programme.
type Course struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"size:200;uniqueIndex;not null" json:"name"`
	Units []Unit `gorm:"many2many:course_units" json:"units,omitempty"`
}
