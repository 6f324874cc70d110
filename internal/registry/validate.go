package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// documentValidate checks decoded documents. Validators are safe for
// concurrent use once configured.
var documentValidate *validator.Validate

func init() {
	documentValidate = validator.New(validator.WithRequiredStructEnabled())
}

// validateDocument checks field formats: hex colors, known shapes and
// directions. Unknown categories are allowed.
func validateDocument(doc *Document) error {
	err := documentValidate.Struct(doc)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: value %q fails %q", fe.Namespace(), fmt.Sprint(fe.Value()), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}
