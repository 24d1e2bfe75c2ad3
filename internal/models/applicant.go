package models

import (
	"strings"
	"time"
)

// DocumentType distinguishes national cédulas from foreign passports.
type DocumentType string

// Supported identity documents.
const (
	DocumentTypeNational DocumentType = "national"
	DocumentTypeForeign  DocumentType = "foreign"
)

// Valid reports whether the document type is known.
func (d DocumentType) Valid() bool {
	return d == DocumentTypeNational || d == DocumentTypeForeign
}

// ApplicantIdentity is the lookup key for pending-request and student checks.
type ApplicantIdentity struct {
	DocumentType  DocumentType `json:"document_type"`
	DocumentValue string       `json:"document_value"`
}

// Normalized trims and upper-cases the document value and lower-cases the type.
func (a ApplicantIdentity) Normalized() ApplicantIdentity {
	return ApplicantIdentity{
		DocumentType:  DocumentType(strings.ToLower(strings.TrimSpace(string(a.DocumentType)))),
		DocumentValue: strings.ToUpper(strings.TrimSpace(a.DocumentValue)),
	}
}

// Key is the normalized document value used for lookups.
func (a ApplicantIdentity) Key() string {
	return a.Normalized().DocumentValue
}

// PendingRequestStatus is always "pending" for records that block submission.
const PendingRequestStatus = "pending"

// PendingRequestRecord is an enrollment request still awaiting review.
type PendingRequestRecord struct {
	CatalogCourseName string    `json:"catalog_course_name"`
	Code              string    `json:"code"`
	SubmittedAt       time.Time `json:"submitted_at"`
	Status            string    `json:"status"`
}

// StudentProfile holds the fields used to prefill the form for returning applicants.
type StudentProfile struct {
	FirstName string `json:"first_name"`
	Surname   string `json:"surname"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address,omitempty"`
}

// ExistingStudentRecord is a person who has enrolled before.
type ExistingStudentRecord struct {
	ID                    int            `json:"id"`
	Profile               StudentProfile `json:"profile"`
	EnrolledCourseTypeIDs []int          `json:"enrolled_course_type_ids"`
}

// EnrolledIn reports whether the student already took the course type.
func (s *ExistingStudentRecord) EnrolledIn(courseTypeID int) bool {
	if s == nil {
		return false
	}
	for _, id := range s.EnrolledCourseTypeIDs {
		if id == courseTypeID {
			return true
		}
	}
	return false
}
