package models

import (
	"io"
	"strings"
	"time"
)

// PaymentMethod selects which evidence a submission must carry.
type PaymentMethod string

// Supported payment methods.
const (
	PaymentTransfer PaymentMethod = "transfer"
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
)

// ParsePaymentMethod normalises user input into a PaymentMethod.
func ParsePaymentMethod(raw string) PaymentMethod {
	return PaymentMethod(strings.ToLower(strings.TrimSpace(raw)))
}

// UploadedFile describes one file attached to a submission.
type UploadedFile struct {
	Purpose  string
	Filename string
	MimeType string
	Size     int64
	Content  io.Reader
}

// Present reports whether a file was actually attached.
func (f *UploadedFile) Present() bool {
	return f != nil && f.Size > 0
}

// SubmissionForm is the applicant's final enrollment request.
type SubmissionForm struct {
	CatalogKey    string
	CourseTypeID  int
	Identity      ApplicantIdentity
	ScheduleShift ScheduleShift
	FirstName     string
	Surname       string
	Email         string
	Phone         string
	Address       string

	PaymentMethod PaymentMethod
	ReceiptNumber string
	Bank          string
	TransferDate  *time.Time
	ReceiverName  string

	IdentityDocument *UploadedFile
	LegalStatusDoc   *UploadedFile
	PaymentProof     *UploadedFile
}

// Files returns every attached file in a stable order.
func (f SubmissionForm) Files() []*UploadedFile {
	files := make([]*UploadedFile, 0, 3)
	for _, file := range []*UploadedFile{f.IdentityDocument, f.LegalStatusDoc, f.PaymentProof} {
		if file.Present() {
			files = append(files, file)
		}
	}
	return files
}

// SubmissionReceipt is returned by the backend when a submission is accepted.
type SubmissionReceipt struct {
	Code        string              `json:"code"`
	Decision    EligibilityDecision `json:"decision"`
	SubmittedAt time.Time           `json:"submitted_at"`
}
