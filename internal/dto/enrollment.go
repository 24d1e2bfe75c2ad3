package dto

import (
	"strings"
	"time"

	"github.com/noah-isme/enrollment-gate/internal/models"
)

// EligibilityRequest asks for a decision on one catalog entry. The identity is
// optional; without it only course and availability checks run.
type EligibilityRequest struct {
	CatalogKey    string `json:"catalog_key" validate:"required,max=120"`
	DocumentType  string `json:"document_type,omitempty" validate:"omitempty,document_type"`
	DocumentValue string `json:"document_value,omitempty" validate:"required_with=DocumentType"`
}

// Identity returns the applicant identity or nil when none was supplied.
func (r EligibilityRequest) Identity() *models.ApplicantIdentity {
	if strings.TrimSpace(r.DocumentType) == "" && strings.TrimSpace(r.DocumentValue) == "" {
		return nil
	}
	applicant := models.ApplicantIdentity{
		DocumentType:  models.DocumentType(r.DocumentType),
		DocumentValue: r.DocumentValue,
	}.Normalized()
	return &applicant
}

// OpenSessionRequest starts a form session for a catalog entry.
type OpenSessionRequest struct {
	CatalogKey string `json:"catalog_key" validate:"required,max=120"`
}

// SessionIdentityRequest carries identity keystrokes from an open form.
type SessionIdentityRequest struct {
	DocumentType  string `json:"document_type" validate:"required,document_type"`
	DocumentValue string `json:"document_value"`
}

// Identity returns the normalized applicant identity.
func (r SessionIdentityRequest) Identity() models.ApplicantIdentity {
	return models.ApplicantIdentity{
		DocumentType:  models.DocumentType(r.DocumentType),
		DocumentValue: r.DocumentValue,
	}.Normalized()
}

// SubmissionRequest is the text part of the multipart enrollment form.
type SubmissionRequest struct {
	CatalogKey    string `form:"catalog_key"`
	DocumentType  string `form:"document_type"`
	DocumentValue string `form:"document_value"`
	ScheduleShift string `form:"schedule_shift"`
	FirstName     string `form:"first_name"`
	Surname       string `form:"surname"`
	Email         string `form:"email"`
	Phone         string `form:"phone"`
	Address       string `form:"address"`
	PaymentMethod string `form:"payment_method"`
	ReceiptNumber string `form:"receipt_number"`
	Bank          string `form:"bank"`
	TransferDate  string `form:"transfer_date"`
	ReceiverName  string `form:"receiver_name"`
}

// Form converts the request into a SubmissionForm without files. An unparseable
// transfer date is left nil so evidence validation reports it.
func (r SubmissionRequest) Form() models.SubmissionForm {
	form := models.SubmissionForm{
		CatalogKey: strings.TrimSpace(r.CatalogKey),
		Identity: models.ApplicantIdentity{
			DocumentType:  models.DocumentType(r.DocumentType),
			DocumentValue: r.DocumentValue,
		}.Normalized(),
		ScheduleShift: models.ParseScheduleShift(r.ScheduleShift),
		FirstName:     strings.TrimSpace(r.FirstName),
		Surname:       strings.TrimSpace(r.Surname),
		Email:         strings.TrimSpace(r.Email),
		Phone:         strings.TrimSpace(r.Phone),
		Address:       strings.TrimSpace(r.Address),
		PaymentMethod: models.ParsePaymentMethod(r.PaymentMethod),
		ReceiptNumber: strings.TrimSpace(r.ReceiptNumber),
		Bank:          strings.TrimSpace(r.Bank),
		ReceiverName:  strings.TrimSpace(r.ReceiverName),
	}
	if raw := strings.TrimSpace(r.TransferDate); raw != "" {
		if parsed, err := time.Parse("2006-01-02", raw); err == nil {
			form.TransferDate = &parsed
		}
	}
	return form
}

// AvailabilityResponse is the public seat overview.
type AvailabilityResponse struct {
	CourseTypes []*models.CourseTypeSeats `json:"course_types"`
	FetchedAt   time.Time                 `json:"fetched_at"`
}

// ShiftSeatsResponse reports seats left for one course type and shift.
type ShiftSeatsResponse struct {
	CourseTypeID  int                  `json:"course_type_id"`
	ScheduleShift models.ScheduleShift `json:"schedule_shift"`
	Seats         int                  `json:"seats"`
	FetchedAt     time.Time            `json:"fetched_at"`
}

// RefreshResponse summarises an operator-forced availability refresh.
type RefreshResponse struct {
	Offerings          int                       `json:"offerings"`
	FetchedAt          time.Time                 `json:"fetched_at"`
	CatalogInvalidated bool                      `json:"catalog_invalidated"`
	LastEvent          *models.NewOfferingsEvent `json:"last_event,omitempty"`
}

// CacheStateResponse exposes availability cache internals for operators.
type CacheStateResponse struct {
	FetchedAt       time.Time `json:"fetched_at"`
	LastAttempt     time.Time `json:"last_attempt"`
	Offerings       int       `json:"offerings"`
	Baselined       bool      `json:"baselined"`
	OpenSessions    int       `json:"open_sessions"`
	NotifyProcessed uint64    `json:"notify_processed"`
	NotifyFailed    uint64    `json:"notify_failed"`
	NotifyDropped   uint64    `json:"notify_dropped"`
}
