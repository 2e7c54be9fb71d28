package checkout

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// ValidateAddress checks the fields a delivery needs. The returned error
// carries a field -> message map in its details.
func ValidateAddress(addr types.Address) error {
	addr = addr.Trimmed()
	err := validate.Struct(addr)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address")
	}
	details := make(map[string]string, len(errs))
	for _, fieldErr := range errs {
		switch fieldErr.Tag() {
		case "required":
			details[fieldErr.Field()] = "is required"
		case "email":
			details[fieldErr.Field()] = "must be a valid email"
		default:
			details[fieldErr.Field()] = "is invalid"
		}
	}
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("address is missing %d field(s)", len(details))).WithDetails(details)
}
