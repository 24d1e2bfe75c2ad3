package repository

import (
	"context"
	"net/url"
	"strconv"

	"github.com/noah-isme/enrollment-gate/internal/models"
	"github.com/noah-isme/enrollment-gate/pkg/backend"
)

type submissionClient interface {
	PostJSON(ctx context.Context, endpoint string, body interface{}, dest interface{}) error
	PostMultipart(ctx context.Context, endpoint string, fields map[string]string, files []backend.FilePart, dest interface{}) error
}

// SubmissionRepository forwards validated submissions to the backend.
type SubmissionRepository struct {
	client submissionClient
}

// NewSubmissionRepository constructs a submission repository.
func NewSubmissionRepository(client submissionClient) *SubmissionRepository {
	return &SubmissionRepository{client: client}
}

// Create posts the submission, as multipart when files are attached. Backend
// rejections are returned as *backend.StatusError.
func (r *SubmissionRepository) Create(ctx context.Context, form models.SubmissionForm, decision models.EligibilityDecision) (*models.SubmissionReceipt, error) {
	fields := submissionFields(form, decision)
	var receipt models.SubmissionReceipt

	files := form.Files()
	if len(files) == 0 {
		if err := r.client.PostJSON(ctx, endpointSubmission, fields, &receipt); err != nil {
			return nil, err
		}
		return &receipt, nil
	}

	parts := make([]backend.FilePart, 0, len(files))
	for _, file := range files {
		parts = append(parts, backend.FilePart{
			Field:       file.Purpose,
			Filename:    file.Filename,
			ContentType: file.MimeType,
			Content:     file.Content,
		})
	}
	if err := r.client.PostMultipart(ctx, endpointSubmission, fields, parts, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

func submissionFields(form models.SubmissionForm, decision models.EligibilityDecision) map[string]string {
	identity := form.Identity.Normalized()
	fields := map[string]string{
		"catalog_key":             form.CatalogKey,
		"course_type_id":          strconv.Itoa(form.CourseTypeID),
		"decision":                string(decision),
		models.FieldDocumentType:  string(identity.DocumentType),
		models.FieldDocumentValue: identity.DocumentValue,
		models.FieldScheduleShift: string(form.ScheduleShift),
		models.FieldPaymentMethod: string(form.PaymentMethod),
	}
	optional := url.Values{}
	optional.Set(models.FieldFirstName, form.FirstName)
	optional.Set(models.FieldSurname, form.Surname)
	optional.Set(models.FieldEmail, form.Email)
	optional.Set(models.FieldPhone, form.Phone)
	optional.Set("address", form.Address)
	optional.Set(models.FieldReceiptNumber, form.ReceiptNumber)
	optional.Set(models.FieldBank, form.Bank)
	optional.Set(models.FieldReceiverName, form.ReceiverName)
	if form.TransferDate != nil {
		optional.Set(models.FieldTransferDate, form.TransferDate.Format("2006-01-02"))
	}
	for key := range optional {
		if value := optional.Get(key); value != "" {
			fields[key] = value
		}
	}
	return fields
}
