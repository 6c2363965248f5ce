package store

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

// ErrInvalidMetadata is returned when an application descriptor fails validation
var ErrInvalidMetadata = errors.New("invalid application metadata")

var appIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// NewValidator returns a validator that understands the "appid" tag
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("appid", func(fl validator.FieldLevel) bool {
		return appIDPattern.MatchString(fl.Field().String())
	})
	return v
}

// ValidateMetadata checks a descriptor against its struct tags
func ValidateMetadata(v *validator.Validate, meta types.Metadata) error {
	if err := v.Struct(meta); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return fmt.Errorf("%w: %s failed %q", ErrInvalidMetadata, first.Namespace(), first.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}
	return nil
}
