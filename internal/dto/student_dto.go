package dto

import (
	"crypto/md5"
	"fmt"
	"strings"
	"time"

	"github.com/ouk-labs/grouper-api/internal/models"
)

// RegisterStudentRequest is the payload for student registration. It is
// validated strictly before any engine logic runs.
type RegisterStudentRequest struct {
	Name          string `json:"name" validate:"required,min=2,max=100"`
	StudentNumber string `json:"student_number" validate:"required,min=3,max=50"`
	Gender        string `json:"gender" validate:"required,oneof=male female other"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone" validate:"required,min=7,max=30"`
	CourseID      uint   `json:"course_id" validate:"required,gt=0"`
	UnitIDs       []uint `json:"unit_ids" validate:"omitempty,dive,gt=0"`
}

// StudentResponse serializes a student for API clients.
type StudentResponse struct {
	ID            uint           `json:"id"`
	Name          string         `json:"name"`
	StudentNumber string         `json:"student_number"`
	Gender        string         `json:"gender"`
	Email         string         `json:"email"`
	Phone         string         `json:"phone"`
	CourseID      uint           `json:"course_id"`
	Course        string         `json:"course"`
	GroupID       *uint          `json:"group_id"`
	Units         []UnitResponse `json:"units"`
	GravatarURL   string         `json:"gravatar_url"`
	CreatedAt     time.Time      `json:"created_at"`
}

// PublicMemberResponse is the reduced member view exposed without a session.
type PublicMemberResponse struct {
	Name   string `json:"name"`
	Course string `json:"course"`
	Gender string `json:"gender"`
}

// PlacementResponse pairs a student with the group the engine placed them in.
type PlacementResponse struct {
	Student StudentResponse `json:"student"`
	Group   GroupResponse   `json:"group"`
}

// PublicLookupResponse is the sessionless placement view keyed by student
// number. Group fields stay zero while the student is unassigned.
type PublicLookupResponse struct {
	Student     PublicMemberResponse   `json:"student"`
	GroupID     *uint                  `json:"group_id"`
	GroupName   string                 `json:"group_name,omitempty"`
	ContactLink string                 `json:"contact_link,omitempty"`
	Members     []PublicMemberResponse `json:"members,omitempty"`
}

// NewStudentResponse converts a student model into a DTO.
func NewStudentResponse(student models.Student) StudentResponse {
	units := make([]UnitResponse, 0, len(student.Units))
	for _, unit := range student.Units {
		units = append(units, NewUnitResponse(unit))
	}

	return StudentResponse{
		ID:            student.ID,
		Name:          student.Name,
		StudentNumber: student.StudentNumber,
		Gender:        student.Gender,
		Email:         student.Email,
		Phone:         student.Phone,
		CourseID:      student.CourseID,
		Course:        student.Course.Name,
		GroupID:       student.GroupID,
		Units:         units,
		GravatarURL:   gravatarURL(student.Email, 40),
		CreatedAt:     student.CreatedAt,
	}
}

// NewPublicMemberResponse converts a student into the public member view.
func NewPublicMemberResponse(student models.Student) PublicMemberResponse {
	return PublicMemberResponse{
		Name:   student.Name,
		Course: student.Course.Name,
		Gender: student.Gender,
	}
}

func gravatarURL(email string, size int) string {
	hash := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?s=%d&d=identicon", hash, size)
}
