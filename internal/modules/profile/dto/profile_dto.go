package dto

import (
	"io"

	"anoa.com/facultydir/internal/entity"
)

// DocumentFile is one uploaded file keyed by its slot name in the request.
type DocumentFile struct {
	Reader   io.Reader
	FileName string
}

type CreateProfileInput struct {
	Email         string `form:"email" binding:"required,email"`
	Password      string `form:"password" binding:"required,min=8"`
	Name          string `form:"name" binding:"required"`
	PhoneNumber   string `form:"phone_number"`
	Department    string `form:"department"`
	Title         string `form:"title"`
	Bio           string `form:"bio"`
	Qualifications string `form:"qualifications"`
	DateOfJoining string `form:"date_of_joining"`
	Experience    string `form:"experience"`
	Research      string `form:"research"`
}

// UpdateProfileInput carries the full set of recognized text fields. Fields
// absent from the request bind to empty strings; file slots travel separately
// and untouched slots keep their stored paths.
type UpdateProfileInput struct {
	Name          string `form:"name" binding:"required"`
	Department    string `form:"department"`
	Title         string `form:"title"`
	Bio           string `form:"bio"`
	Qualifications string `form:"qualifications"`
	DateOfJoining string `form:"date_of_joining"`
	Experience    string `form:"experience"`
	Research      string `form:"research"`
	Email         string `form:"email" binding:"omitempty,email"`
	PhoneNumber   string `form:"phone_number"`
}

type LockInput struct {
	Lock *bool `json:"lock" binding:"required"`
}

type ProfileResponse struct {
	*entity.Profile
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	UserRole    string `json:"user_role,omitempty"`
}
