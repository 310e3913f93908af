package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/username/dealfolio/backend/src/utils"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStruct runs the struct's `validate` tags and flattens failures into
// a single client-presentable error.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		msgs = append(msgs, fmt.Sprintf("field '%s' failed rule '%s'", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
}

// ValidateAnchorDate checks a commission-year anchor ("MM-DD", or a full ISO
// date whose year is ignored).
func ValidateAnchorDate(anchor string) error {
	if _, _, ok := utils.ParseAnchor(anchor); !ok {
		return fmt.Errorf("commission_year_start must be a month/day anchor like '03-15'")
	}
	return nil
}

// ValidateISODate checks a YYYY-MM-DD date string.
func ValidateISODate(date string) error {
	if t := utils.ParseDate(date); t.IsZero() {
		return fmt.Errorf("date must be formatted YYYY-MM-DD")
	}
	return nil
}
