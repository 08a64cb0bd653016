package validator

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/septivank/eb-billing/tools/timeparser"
)

var (
	// ErrInvalidPhone is returned when a phone number is not exactly 10 digits
	ErrInvalidPhone = errors.New("phone number must be exactly 10 digits")
	// ErrInputFormat is returned when operator input cannot be parsed into the expected type
	ErrInputFormat = errors.New("invalid input format")
)

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// ValidatePhone checks that phone consists of exactly 10 ASCII digits
func ValidatePhone(phone string) error {
	if !phonePattern.MatchString(phone) {
		return fmt.Errorf("%w: %q", ErrInvalidPhone, phone)
	}
	return nil
}

// ParseID parses a numeric record id
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: id %q is not a whole number", ErrInputFormat, s)
	}
	return id, nil
}

// ParseReadingValue parses a decimal kWh meter value.
// The range is not checked; any finite number is accepted.
func ParseReadingValue(s string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	// ParseFloat also takes hex floats such as 0x1p4
	if strings.ContainsAny(trimmed, "xX") {
		return 0, fmt.Errorf("%w: reading %q is not a decimal number", ErrInputFormat, s)
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: reading %q is not a number", ErrInputFormat, s)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: reading %q is not a finite number", ErrInputFormat, s)
	}
	return value, nil
}

// ParseDate parses a calendar date
func ParseDate(s string) (time.Time, error) {
	t, err := timeparser.ParseReadingDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInputFormat, err)
	}
	return t, nil
}
