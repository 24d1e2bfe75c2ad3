package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enrollment-gate/internal/models"
	appErrors "github.com/noah-isme/enrollment-gate/pkg/errors"
)

type fakeSubmissionService struct {
	form    models.SubmissionForm
	content map[string]string
	receipt *models.SubmissionReceipt
	err     error
}

func (f *fakeSubmissionService) Submit(_ context.Context, form models.SubmissionForm) (*models.SubmissionReceipt, error) {
	f.form = form
	f.content = map[string]string{}
	for _, file := range form.Files() {
		data, _ := io.ReadAll(file.Content)
		f.content[file.Purpose] = string(data)
	}
	return f.receipt, f.err
}

type multipartFile struct {
	field       string
	contentType string
	body        string
}

func multipartContext(t *testing.T, fields map[string]string, files ...multipartFile) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for name, value := range fields {
		require.NoError(t, writer.WriteField(name, value))
	}
	for _, file := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.field, file.field+".dat"))
		header.Set("Content-Type", file.contentType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write([]byte(file.body))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/submissions", &body)
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())
	return c, rec
}

const pngSignature = "\x89PNG\r\n\x1a\n"

func submissionFields() map[string]string {
	return map[string]string{
		"catalog_key":    "lashista",
		"document_type":  "National",
		"document_value": "1710034065",
		"schedule_shift": "EVENING",
		"first_name":     " Ana ",
		"surname":        "Pérez",
		"email":          "ana@example.com",
		"phone":          "0991234567",
		"payment_method": "Transfer",
		"receipt_number": "TRX-77",
		"bank":           "Banco Pichincha",
		"transfer_date":  "2024-03-01",
	}
}

func TestSubmissionHandlerBuildsForm(t *testing.T) {
	svc := &fakeSubmissionService{receipt: &models.SubmissionReceipt{Code: "ENR-10", Decision: models.DecisionOpenNewApplicant}}
	handler := NewSubmissionHandler(svc, 5<<20)

	c, rec := multipartContext(t, submissionFields(),
		multipartFile{field: models.FieldIdentityFile, contentType: "application/pdf", body: "%PDF-1.4"},
		multipartFile{field: models.FieldPaymentProof, contentType: "image/png", body: pngSignature + "payload"},
	)
	handler.Submit(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	form := svc.form
	assert.Equal(t, models.DocumentTypeNational, form.Identity.DocumentType)
	assert.Equal(t, models.ShiftEvening, form.ScheduleShift)
	assert.Equal(t, models.PaymentTransfer, form.PaymentMethod)
	assert.Equal(t, "Ana", form.FirstName)
	require.NotNil(t, form.TransferDate)
	assert.Equal(t, "2024-03-01", form.TransferDate.Format("2006-01-02"))

	require.NotNil(t, form.IdentityDocument)
	assert.Equal(t, "application/pdf", form.IdentityDocument.MimeType)
	assert.Equal(t, int64(len("%PDF-1.4")), form.IdentityDocument.Size)
	assert.Nil(t, form.LegalStatusDoc)
	assert.Equal(t, "image/png", form.PaymentProof.MimeType)
	assert.Equal(t, pngSignature+"payload", svc.content[models.FieldPaymentProof], "sniffing rewinds the file")
}

func TestSubmissionHandlerSniffsContentType(t *testing.T) {
	svc := &fakeSubmissionService{receipt: &models.SubmissionReceipt{Code: "ENR-11"}}
	handler := NewSubmissionHandler(svc, 5<<20)

	c, rec := multipartContext(t, submissionFields(),
		multipartFile{field: models.FieldIdentityFile, contentType: "application/pdf", body: "GIF89a\x01\x00\x01\x00"},
		multipartFile{field: models.FieldPaymentProof, contentType: "image/png", body: "plain text receipt"},
	)
	handler.Submit(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "image/gif", svc.form.IdentityDocument.MimeType)
	assert.Equal(t, "text/plain; charset=utf-8", svc.form.PaymentProof.MimeType)
}

func TestSubmissionHandlerLeavesBadDateForValidation(t *testing.T) {
	svc := &fakeSubmissionService{err: appErrors.MissingEvidence("transfer", "transfer date is required")}
	handler := NewSubmissionHandler(svc, 5<<20)

	fields := submissionFields()
	fields["transfer_date"] = "01/03/2024"
	c, rec := multipartContext(t, fields)
	handler.Submit(c)

	assert.Nil(t, svc.form.TransferDate)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, appErrors.CodeMissingEvidence, decodeEnvelope(t, rec).Error.Code)
}

func TestSubmissionHandlerMapsDuplicateReceipt(t *testing.T) {
	svc := &fakeSubmissionService{err: appErrors.Clone(appErrors.ErrDuplicateReceipt, "")}
	handler := NewSubmissionHandler(svc, 5<<20)

	c, rec := multipartContext(t, submissionFields())
	handler.Submit(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, appErrors.CodeDuplicateReceipt, envelope.Error.Code)
	assert.Equal(t, appErrors.ErrDuplicateReceipt.Message, envelope.Error.Message)
}
