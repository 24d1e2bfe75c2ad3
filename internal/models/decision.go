package models

// EligibilityDecision gates the rest of the submission form.
type EligibilityDecision string

// Possible decisions, in evaluation priority order.
const (
	DecisionUnresolved             EligibilityDecision = "UNRESOLVED"
	DecisionClosed                 EligibilityDecision = "CLOSED"
	DecisionBlockedPending         EligibilityDecision = "BLOCKED_PENDING"
	DecisionBlockedDuplicate       EligibilityDecision = "BLOCKED_DUPLICATE"
	DecisionOpenNewApplicant       EligibilityDecision = "OPEN_NEW_APPLICANT"
	DecisionOpenReturningApplicant EligibilityDecision = "OPEN_RETURNING_APPLICANT"
)

// Open reports whether the decision allows a submission.
func (d EligibilityDecision) Open() bool {
	return d == DecisionOpenNewApplicant || d == DecisionOpenReturningApplicant
}

// Form field names shared by the required-field matrix and validation errors.
const (
	FieldDocumentType  = "document_type"
	FieldDocumentValue = "document_value"
	FieldScheduleShift = "schedule_shift"
	FieldFirstName     = "first_name"
	FieldSurname       = "surname"
	FieldEmail         = "email"
	FieldPhone         = "phone"
	FieldIdentityFile  = "identity_document"
	FieldLegalStatus   = "legal_status_document"
	FieldPaymentMethod = "payment_method"
	FieldReceiptNumber = "receipt_number"
	FieldBank          = "bank"
	FieldTransferDate  = "transfer_date"
	FieldReceiverName  = "receiver_name"
	FieldPaymentProof  = "payment_proof"
)

// RequiredFields lists the inputs a caller must collect for a decision, excluding
// payment evidence which depends on the chosen method.
func RequiredFields(decision EligibilityDecision, documentType DocumentType) []string {
	switch decision {
	case DecisionOpenReturningApplicant:
		return []string{FieldDocumentType, FieldDocumentValue, FieldScheduleShift, FieldPaymentMethod}
	case DecisionOpenNewApplicant:
		fields := []string{
			FieldDocumentType, FieldDocumentValue, FieldScheduleShift,
			FieldFirstName, FieldSurname, FieldEmail, FieldPhone, FieldIdentityFile,
			FieldPaymentMethod,
		}
		if documentType == DocumentTypeForeign {
			fields = append(fields, FieldLegalStatus)
		}
		return fields
	default:
		return []string{}
	}
}

// EligibilityResult bundles a decision with the data a form needs to act on it.
type EligibilityResult struct {
	Decision       EligibilityDecision   `json:"decision"`
	CatalogKey     string                `json:"catalog_key"`
	CourseType     *CourseTypeRecord     `json:"course_type,omitempty"`
	Offerings      []CourseOffering      `json:"offerings"`
	Prefill        *StudentProfile       `json:"prefill,omitempty"`
	Pending        *PendingRequestRecord `json:"pending,omitempty"`
	RequiredFields []string              `json:"required_fields"`
	Message        string                `json:"message,omitempty"`
}
