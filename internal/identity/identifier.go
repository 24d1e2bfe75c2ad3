// Package identity validates applicant identifiers and contact details.
package identity

import (
	"regexp"
	"strings"

	"github.com/noah-isme/enrollment-gate/internal/models"
	appErrors "github.com/noah-isme/enrollment-gate/pkg/errors"
)

const (
	nationalIDLength = 10
	minProvinceCode  = 1
	maxProvinceCode  = 24
)

var (
	passportPattern = regexp.MustCompile(`^[A-Z0-9]{6,20}$`)
	phonePattern    = regexp.MustCompile(`^09[0-9]{8}$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@.]{2,}$`)
)

// ErrInvalidIdentification is returned for every national ID failure. Causes are
// deliberately not distinguished.
var ErrInvalidIdentification = appErrors.InvalidField(models.FieldDocumentValue, "invalid identification")

// ValidateNationalID checks an Ecuadorian cédula: ten digits, not all equal, a
// province code between 01 and 24 and a modulus-10 check digit.
func ValidateNationalID(value string) error {
	if len(value) != nationalIDLength {
		return ErrInvalidIdentification
	}
	digits := make([]int, nationalIDLength)
	for i := 0; i < nationalIDLength; i++ {
		c := value[i]
		if c < '0' || c > '9' {
			return ErrInvalidIdentification
		}
		digits[i] = int(c - '0')
	}
	if strings.Count(value, value[:1]) == nationalIDLength {
		return ErrInvalidIdentification
	}
	province := digits[0]*10 + digits[1]
	if province < minProvinceCode || province > maxProvinceCode {
		return ErrInvalidIdentification
	}
	if checkDigit(digits[:9]) != digits[9] {
		return ErrInvalidIdentification
	}
	return nil
}

// checkDigit doubles digits at odd 1-indexed positions, folding results above 9.
func checkDigit(digits []int) int {
	sum := 0
	for i, d := range digits {
		if i%2 == 0 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	next := ((sum + 9) / 10) * 10
	expected := next - sum
	if expected == 10 {
		return 0
	}
	return expected
}

// ValidatePassport accepts 6 to 20 alphanumeric characters, case-insensitively.
func ValidatePassport(value string) bool {
	return passportPattern.MatchString(strings.ToUpper(value))
}

// ValidatePhone accepts Ecuadorian mobile numbers such as 0991234567.
func ValidatePhone(value string) bool {
	return phonePattern.MatchString(value)
}

// ValidateEmail accepts local@domain.tld with a TLD of at least two characters.
func ValidateEmail(value string) bool {
	return emailPattern.MatchString(value)
}

// ValidateDocument dispatches to the rule for the document type.
func ValidateDocument(documentType models.DocumentType, value string) error {
	switch documentType {
	case models.DocumentTypeNational:
		return ValidateNationalID(strings.TrimSpace(value))
	case models.DocumentTypeForeign:
		if !ValidatePassport(strings.TrimSpace(value)) {
			return appErrors.InvalidField(models.FieldDocumentValue, "passport must be 6 to 20 letters or digits")
		}
		return nil
	default:
		return appErrors.InvalidField(models.FieldDocumentType, "document type must be national or foreign")
	}
}
