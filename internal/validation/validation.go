package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

var (
	studentNumberTag   = "student_number"
	studentNumberText  = "{0} must contain only digits, letters and dashes"
	studentNumberRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]{2,49}$`)

	requiredTag  = "required"
	requiredText = "{0} is required"
)

// FieldError is a validation failure on one request field, keyed by its JSON name.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// Error is returned by Struct when one or more fields fail validation.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error
	}
	return strings.Join(msgs, "; ")
}

var (
	once       sync.Once
	validate   *validator.Validate
	translator ut.Translator
)

func instance() (*validator.Validate, ut.Translator) {
	once.Do(func() {
		locale := en.New()
		uni := ut.New(locale, locale)
		translator, _ = uni.GetTranslator("en")

		validate = validator.New()
		_ = entranslations.RegisterDefaultTranslations(validate, translator)

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		_ = validate.RegisterValidation(studentNumberTag, func(fl validator.FieldLevel) bool {
			return studentNumberRegex.MatchString(fl.Field().String())
		})
		registerTranslation(studentNumberTag, studentNumberText, false)
		registerTranslation(requiredTag, requiredText, true)
	})
	return validate, translator
}

func registerTranslation(tag, text string, override bool) {
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, override) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Struct validates v against its `validate` tags.
func Struct(v interface{}) error {
	val, trans := instance()
	err := val.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Error: fe.Translate(trans)})
	}
	return &Error{Fields: fields}
}

// Var validates a single value, e.g. Var(email, "required,email").
func Var(field interface{}, tag string) error {
	val, _ := instance()
	return val.Var(field, tag)
}
