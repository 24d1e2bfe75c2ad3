package identity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enrollment-gate/internal/models"
	appErrors "github.com/noah-isme/enrollment-gate/pkg/errors"
)

func TestValidateNationalID(t *testing.T) {
	tests := []struct {
		name  string
		value string
		valid bool
	}{
		{name: "valid pichincha", value: "1710034065", valid: true},
		{name: "valid guayas", value: "0926687856", valid: true},
		{name: "check digit zero", value: "0102030400", valid: true},
		{name: "wrong check digit", value: "1710034064", valid: false},
		{name: "identical digits", value: "1111111111", valid: false},
		{name: "province zero", value: "0010034065", valid: false},
		{name: "province above range", value: "2510034065", valid: false},
		{name: "too short", value: "171003406", valid: false},
		{name: "too long", value: "17100340651", valid: false},
		{name: "non digit", value: "17100340A5", valid: false},
		{name: "empty", value: "", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNationalID(tt.value)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, appErrors.ErrInvalidField))
			assert.Equal(t, "invalid identification", appErrors.FromError(err).Message)
		})
	}
}

func TestCheckDigitWrapsTenToZero(t *testing.T) {
	// 2+0+2+0+6+0+8+0+0 = 18, next multiple 20, expected 2.
	assert.Equal(t, 2, checkDigit([]int{1, 0, 1, 0, 3, 0, 4, 0, 0}))
	// 1+9 = 10 leaves nothing to add.
	assert.Equal(t, 0, checkDigit([]int{5, 0, 0, 0, 0, 0, 0, 0, 9}))
}

func TestValidatePassport(t *testing.T) {
	assert.True(t, ValidatePassport("AB1234"))
	assert.True(t, ValidatePassport("ab1234cd"))
	assert.False(t, ValidatePassport("AB123"))
	assert.False(t, ValidatePassport("AB-12345"))
	assert.False(t, ValidatePassport("A123456789012345678901"))
}

func TestValidatePhone(t *testing.T) {
	assert.True(t, ValidatePhone("0991234567"))
	assert.False(t, ValidatePhone("0891234567"))
	assert.False(t, ValidatePhone("099123456"))
	assert.False(t, ValidatePhone("09912345678"))
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("ana@example.com"))
	assert.True(t, ValidateEmail("ana.perez@mail.example.ec"))
	assert.False(t, ValidateEmail("ana@example.c"))
	assert.False(t, ValidateEmail("ana example.com"))
	assert.False(t, ValidateEmail("@example.com"))
}

func TestValidateDocument(t *testing.T) {
	assert.NoError(t, ValidateDocument(models.DocumentTypeNational, " 1710034065 "))
	assert.NoError(t, ValidateDocument(models.DocumentTypeForeign, "x1234567"))

	err := ValidateDocument(models.DocumentTypeForeign, "12")
	require.Error(t, err)
	assert.Equal(t, models.FieldDocumentValue, appErrors.FromError(err).Field)

	err = ValidateDocument("", "1710034065")
	require.Error(t, err)
	assert.Equal(t, models.FieldDocumentType, appErrors.FromError(err).Field)
}

func TestRegisterValidations(t *testing.T) {
	type payload struct {
		Document string `validate:"ec_national_id"`
		Phone    string `validate:"omitempty,ec_mobile"`
		Email    string `validate:"omitempty,contact_email"`
		Type     string `validate:"document_type"`
	}
	v := NewValidator()

	assert.NoError(t, v.Struct(payload{Document: "1710034065", Phone: "0991234567", Email: "a@b.ec", Type: "national"}))
	assert.Error(t, v.Struct(payload{Document: "1710034064", Type: "national"}))
	assert.Error(t, v.Struct(payload{Document: "1710034065", Type: "other"}))
}

func TestFingerprintNormalizes(t *testing.T) {
	a := Fingerprint(models.ApplicantIdentity{DocumentType: "FOREIGN", DocumentValue: " ab1234 "})
	b := Fingerprint(models.ApplicantIdentity{DocumentType: models.DocumentTypeForeign, DocumentValue: "AB1234"})
	c := Fingerprint(models.ApplicantIdentity{DocumentType: models.DocumentTypeNational, DocumentValue: "AB1234"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 16)
	assert.NotContains(t, a, "AB1234")
}
