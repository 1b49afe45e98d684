package models

import "time"

// Gender values accepted at registration.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// Student is a registered learner. GroupID is nil until the placement
// engine assigns a group and is mutated only through the assignment service.
type Student struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:100;not null" json:"name"`
	StudentNumber string    `gorm:"size:50;uniqueIndex;not null" json:"student_number"`
	Gender        string    `gorm:"size:20;not null" json:"gender"`
	Email         string    `gorm:"size:255;not null" json:"email"`
	Phone         string    `gorm:"size:30;not null" json:"phone"`
	CourseID      uint      `gorm:"not null" json:"course_id"`
	Course        Course    `json:"-"`
	GroupID       *uint     `json:"group_id"`
	Units         []Unit    `gorm:"many2many:student_units" json:"units"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
