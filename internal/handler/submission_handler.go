package handler

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/enrollment-gate/internal/dto"
	"github.com/noah-isme/enrollment-gate/internal/models"
	appErrors "github.com/noah-isme/enrollment-gate/pkg/errors"
	"github.com/noah-isme/enrollment-gate/pkg/response"
)

// formOverhead is the allowance for text fields on top of the file ceiling.
const formOverhead int64 = 1 << 20

var uploadFields = []string{models.FieldIdentityFile, models.FieldLegalStatus, models.FieldPaymentProof}

type submissionService interface {
	Submit(ctx context.Context, form models.SubmissionForm) (*models.SubmissionReceipt, error)
}

// SubmissionHandler accepts the final multipart enrollment form.
type SubmissionHandler struct {
	service     submissionService
	maxFileSize int64
}

// NewSubmissionHandler constructs the handler. maxFileSize bounds each file and
// sizes the overall request limit.
func NewSubmissionHandler(service submissionService, maxFileSize int64) *SubmissionHandler {
	return &SubmissionHandler{service: service, maxFileSize: maxFileSize}
}

// Submit godoc
// @Summary Submit an enrollment request
// @Description Re-checks eligibility and live seats, validates evidence and files, then forwards the form
// @Tags Submissions
// @Accept multipart/form-data
// @Produce json
// @Param catalog_key formData string true "Catalog key"
// @Param document_type formData string true "national or foreign"
// @Param document_value formData string true "Cédula or passport number"
// @Param schedule_shift formData string true "morning or evening"
// @Param payment_method formData string true "transfer, cash or card"
// @Param identity_document formData file false "Identity document copy"
// @Param legal_status_document formData file false "Legal residence proof (foreign applicants)"
// @Param payment_proof formData file false "Payment receipt"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Router /submissions [post]
func (h *SubmissionHandler) Submit(c *gin.Context) {
	if h.maxFileSize > 0 {
		limit := int64(len(uploadFields))*h.maxFileSize + formOverhead
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	var req dto.SubmissionRequest
	if err := c.ShouldBind(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, appErrors.Clone(appErrors.ErrOversizedFile, "the enrollment form is too large"))
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid enrollment form"))
		return
	}
	form := req.Form()

	var closers []io.Closer
	defer func() {
		for _, closer := range closers {
			_ = closer.Close()
		}
	}()
	for _, field := range uploadFields {
		header, err := c.FormFile(field)
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) {
				continue
			}
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid enrollment form"))
			return
		}
		upload, closer, err := openUpload(field, header)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "could not read uploaded file"))
			return
		}
		closers = append(closers, closer)
		attachUpload(&form, upload)
	}

	receipt, err := h.service.Submit(c.Request.Context(), form)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, receipt)
}

// openUpload sniffs the MIME type from the file content; the client's part
// header is ignored.
func openUpload(field string, header *multipart.FileHeader) (*models.UploadedFile, io.Closer, error) {
	file, err := header.Open()
	if err != nil {
		return nil, nil, err
	}
	detected, err := mimetype.DetectReader(file)
	if err != nil {
		_ = file.Close()
		return nil, nil, err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		_ = file.Close()
		return nil, nil, err
	}
	return &models.UploadedFile{
		Purpose:  field,
		Filename: header.Filename,
		MimeType: detected.String(),
		Size:     header.Size,
		Content:  file,
	}, file, nil
}

func attachUpload(form *models.SubmissionForm, upload *models.UploadedFile) {
	switch upload.Purpose {
	case models.FieldIdentityFile:
		form.IdentityDocument = upload
	case models.FieldLegalStatus:
		form.LegalStatusDoc = upload
	case models.FieldPaymentProof:
		form.PaymentProof = upload
	}
}
