package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/noah-isme/enrollment-gate/internal/identity"
	"github.com/noah-isme/enrollment-gate/internal/models"
	appErrors "github.com/noah-isme/enrollment-gate/pkg/errors"
)

const defaultMaxFileSize int64 = 5 << 20

// DefaultAllowedMIMETypes is the upload contract for identity and payment files.
var DefaultAllowedMIMETypes = []string{"application/pdf", "image/jpeg", "image/png", "image/webp"}

type seatCounter interface {
	SeatsForShift(ctx context.Context, courseTypeID int, shift models.ScheduleShift, forceRefresh bool) (int, error)
}

// UploadPolicy bounds accepted files.
type UploadPolicy struct {
	MaxFileSize  int64
	AllowedMIMEs []string
}

// SubmissionValidator gates the final enrollment write.
type SubmissionValidator struct {
	seats   seatCounter
	policy  UploadPolicy
	allowed map[string]struct{}
}

// NewSubmissionValidator constructs a validator; zero policy values fall back
// to 5 MB and pdf/jpeg/png/webp.
func NewSubmissionValidator(seats seatCounter, policy UploadPolicy) *SubmissionValidator {
	if policy.MaxFileSize <= 0 {
		policy.MaxFileSize = defaultMaxFileSize
	}
	if len(policy.AllowedMIMEs) == 0 {
		policy.AllowedMIMEs = DefaultAllowedMIMETypes
	}
	allowed := make(map[string]struct{}, len(policy.AllowedMIMEs))
	for _, mime := range policy.AllowedMIMEs {
		allowed[strings.ToLower(strings.TrimSpace(mime))] = struct{}{}
	}
	return &SubmissionValidator{seats: seats, policy: policy, allowed: allowed}
}

// Validate returns nil when the submission may be forwarded, otherwise the first
// failing check as a typed error.
func (v *SubmissionValidator) Validate(ctx context.Context, form models.SubmissionForm, decision models.EligibilityDecision, method models.PaymentMethod) error {
	if err := DecisionError(decision); err != nil {
		return err
	}

	documentType := models.DocumentType(strings.ToLower(strings.TrimSpace(string(form.Identity.DocumentType))))
	if !documentType.Valid() {
		return appErrors.InvalidField(models.FieldDocumentType, "select a document type")
	}
	if !form.ScheduleShift.Valid() {
		return appErrors.InvalidField(models.FieldScheduleShift, "select a schedule shift")
	}

	seats, err := v.seats.SeatsForShift(ctx, form.CourseTypeID, form.ScheduleShift, true)
	if err != nil {
		return err
	}
	if seats <= 0 {
		return appErrors.Clone(appErrors.ErrClosed, fmt.Sprintf("no seats remain in the %s shift", form.ScheduleShift))
	}

	if decision == models.DecisionOpenNewApplicant {
		if err := validateNewApplicant(form, documentType); err != nil {
			return err
		}
	}

	if err := validatePaymentEvidence(form, method); err != nil {
		return err
	}

	for _, file := range form.Files() {
		if err := v.ValidateFile(file); err != nil {
			return err
		}
	}
	return nil
}

// ValidateFile checks one upload against the MIME allow-list and size ceiling.
func (v *SubmissionValidator) ValidateFile(file *models.UploadedFile) error {
	if !file.Present() {
		return nil
	}
	mime := strings.ToLower(strings.TrimSpace(file.MimeType))
	if idx := strings.Index(mime, ";"); idx >= 0 {
		mime = strings.TrimSpace(mime[:idx])
	}
	if _, ok := v.allowed[mime]; !ok {
		err := appErrors.Clone(appErrors.ErrUnsupportedFile, fmt.Sprintf("%s must be one of: %s", file.Filename, strings.Join(v.policy.AllowedMIMEs, ", ")))
		err.Field = file.Purpose
		return err
	}
	if file.Size > v.policy.MaxFileSize {
		err := appErrors.Clone(appErrors.ErrOversizedFile, fmt.Sprintf("%s exceeds the %d MB limit", file.Filename, v.policy.MaxFileSize>>20))
		err.Field = file.Purpose
		return err
	}
	return nil
}

// Policy returns the effective upload policy.
func (v *SubmissionValidator) Policy() UploadPolicy {
	return v.policy
}

func validateNewApplicant(form models.SubmissionForm, documentType models.DocumentType) error {
	if strings.TrimSpace(form.FirstName) == "" {
		return appErrors.InvalidField(models.FieldFirstName, "first name is required")
	}
	if strings.TrimSpace(form.Surname) == "" {
		return appErrors.InvalidField(models.FieldSurname, "surname is required")
	}
	if !identity.ValidateEmail(strings.TrimSpace(form.Email)) {
		return appErrors.InvalidField(models.FieldEmail, "enter a valid email address")
	}
	if err := identity.ValidateDocument(documentType, form.Identity.DocumentValue); err != nil {
		return err
	}
	if !identity.ValidatePhone(strings.TrimSpace(form.Phone)) {
		return appErrors.InvalidField(models.FieldPhone, "enter a 10 digit mobile number starting with 09")
	}
	if !form.IdentityDocument.Present() {
		return appErrors.InvalidField(models.FieldIdentityFile, "attach a copy of your identity document")
	}
	if documentType == models.DocumentTypeForeign && !form.LegalStatusDoc.Present() {
		return appErrors.InvalidField(models.FieldLegalStatus, "attach proof of legal residence")
	}
	return nil
}

func validatePaymentEvidence(form models.SubmissionForm, method models.PaymentMethod) error {
	missing := func(reason string) error {
		return appErrors.MissingEvidence(string(method), reason)
	}
	switch method {
	case models.PaymentTransfer:
		if strings.TrimSpace(form.ReceiptNumber) == "" {
			return missing("transfer receipt number is required")
		}
		if strings.TrimSpace(form.Bank) == "" {
			return missing("bank is required for transfers")
		}
		if form.TransferDate == nil || form.TransferDate.IsZero() {
			return missing("transfer date is required")
		}
		if !form.PaymentProof.Present() {
			return missing("attach the transfer receipt")
		}
	case models.PaymentCash:
		if strings.TrimSpace(form.ReceiptNumber) == "" {
			return missing("cash receipt number is required")
		}
		if strings.TrimSpace(form.ReceiverName) == "" {
			return missing("name of the person who received the payment is required")
		}
		if !form.PaymentProof.Present() {
			return missing("attach the cash receipt")
		}
	case models.PaymentCard:
	default:
		return appErrors.InvalidField(models.FieldPaymentMethod, "payment method must be transfer, cash or card")
	}
	return nil
}
