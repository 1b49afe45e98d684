package dto

import "github.com/ouk-labs/grouper-api/internal/models"

// CourseResponse serializes a catalog course.
type CourseResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// UnitResponse serializes a catalog unit.
type UnitResponse struct {
	ID   uint   `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// NewCourseResponse converts a course model into a DTO.
func NewCourseResponse(course models.Course) CourseResponse {
	return CourseResponse{ID: course.ID, Name: course.Name}
}

// NewUnitResponse converts a unit model into a DTO.
func NewUnitResponse(unit models.Unit) UnitResponse {
	return UnitResponse{ID: unit.ID, Code: unit.Code, Name: unit.Name}
}
