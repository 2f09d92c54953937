package validator

import (
	"errors"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var reCardExpiry = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)

// FieldErrors maps JSON field names to human-readable messages.
type FieldErrors struct {
	Fields map[string]string
}

func (e *FieldErrors) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validator wraps go-playground/validator with English translations and
// JSON tag names in messages.
type Validator struct {
	v     *govalidator.Validate
	trans ut.Translator
}

func New() *Validator {
	v := govalidator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, trans)

	_ = v.RegisterValidation("mmyy", func(fl govalidator.FieldLevel) bool {
		return reCardExpiry.MatchString(fl.Field().String())
	})
	_ = v.RegisterTranslation("mmyy", trans,
		func(ut ut.Translator) error {
			return ut.Add("mmyy", "{0} must be a MM/YY date", true)
		},
		func(ut ut.Translator, fe govalidator.FieldError) string {
			t, _ := ut.T("mmyy", fe.Field())
			return t
		})

	return &Validator{v: v, trans: trans}
}

// Struct validates every field of s.
func (v *Validator) Struct(s any) error {
	return v.translate(v.v.Struct(s))
}

// StructPartial validates only the named struct fields (Go names, dotted
// for nested structs).
func (v *Validator) StructPartial(s any, fields ...string) error {
	return v.translate(v.v.StructPartial(s, fields...))
}

func (v *Validator) translate(err error) error {
	if err == nil {
		return nil
	}
	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make(map[string]string, len(ve))
		for _, fe := range ve {
			fields[fe.Field()] = fe.Translate(v.trans)
		}
		return &FieldErrors{Fields: fields}
	}
	return err
}

var std = New()

// Default returns the shared validator.
func Default() *Validator { return std }

// TranslateErrors turns an error into a field map. Errors that are not
// validation errors come back under "detail".
func TranslateErrors(err error) map[string]string {
	var fe *FieldErrors
	if errors.As(err, &fe) {
		return fe.Fields
	}
	return map[string]string{"detail": err.Error()}
}
