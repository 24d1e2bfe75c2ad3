package identity

import (
	"encoding/hex"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/blake2b"

	"github.com/noah-isme/enrollment-gate/internal/models"
)

// Validator tags registered by RegisterValidations.
const (
	TagNationalID   = "ec_national_id"
	TagPassport     = "passport"
	TagMobile       = "ec_mobile"
	TagContactEmail = "contact_email"
	TagDocumentType = "document_type"
)

// RegisterValidations adds the identifier rules as struct tags.
func RegisterValidations(v *validator.Validate) error {
	rules := map[string]validator.Func{
		TagNationalID: func(fl validator.FieldLevel) bool {
			return ValidateNationalID(fl.Field().String()) == nil
		},
		TagPassport: func(fl validator.FieldLevel) bool {
			return ValidatePassport(fl.Field().String())
		},
		TagMobile: func(fl validator.FieldLevel) bool {
			return ValidatePhone(fl.Field().String())
		},
		TagContactEmail: func(fl validator.FieldLevel) bool {
			return ValidateEmail(fl.Field().String())
		},
		TagDocumentType: func(fl validator.FieldLevel) bool {
			return models.DocumentType(strings.ToLower(fl.Field().String())).Valid()
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

// NewValidator returns a validator with the identifier rules registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	if err := RegisterValidations(v); err != nil {
		panic(err)
	}
	return v
}

// Fingerprint hashes a normalized identity so document numbers stay out of logs.
func Fingerprint(id models.ApplicantIdentity) string {
	n := id.Normalized()
	sum := blake2b.Sum256([]byte(string(n.DocumentType) + ":" + n.DocumentValue))
	return hex.EncodeToString(sum[:8])
}
