package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/SscSPs/bookkeeping_core/internal/apperrors"
	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	instance *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
	})
	return instance
}

// Struct validates s against its `validate` tags and maps failures onto apperrors.ErrValidation.
func Struct(s any) error {
	err := get().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%w: invalid fields: %s", apperrors.ErrValidation, strings.Join(fields, ", "))
	}
	return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
}
