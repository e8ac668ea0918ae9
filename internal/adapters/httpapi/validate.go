package httpapi

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateEach validates every element of a decoded JSON array and returns the failures
// keyed by "[index].field", or nil when all elements are valid.
func validateEach[T any](items []T) map[string]any {
	var details map[string]any
	for i := range items {
		err := validate.Struct(&items[i])
		if err == nil {
			continue
		}
		if details == nil {
			details = map[string]any{}
		}
		var ves validator.ValidationErrors
		if !errors.As(err, &ves) {
			details[fmt.Sprintf("[%d]", i)] = err.Error()
			continue
		}
		for _, fe := range ves {
			details[fmt.Sprintf("[%d].%s", i, fe.Field())] = fe.Tag()
		}
	}
	return details
}
