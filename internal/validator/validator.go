package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var trans ut.Translator

// Setup wires English translations and JSON field naming into Gin's
// binding validator. Call once at startup, before the router serves.
func Setup() {
	v, ok := binding.Validator.Engine().(*govalidator.Validate)
	if !ok {
		return
	}

	// Report errors against the json tag, not the Go field name.
	v.RegisterTagNameFunc(jsonFieldName)

	locale := en.New()
	trans, _ = ut.New(locale, locale).GetTranslator("en")
	en_translations.RegisterDefaultTranslations(v, trans)
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// Bind decodes the JSON request body into dst and validates it. It returns
// nil on success, or a field-to-message map suitable for FailWithFields.
func Bind(c *gin.Context, dst interface{}) map[string]string {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}

	fields := make(map[string]string)
	var ve govalidator.ValidationErrors
	if !errors.As(err, &ve) {
		// Malformed JSON or a type mismatch rather than a rule failure.
		fields["detail"] = err.Error()
		return fields
	}
	for _, fe := range ve {
		fields[fe.Field()] = fe.Translate(trans)
	}
	return fields
}
