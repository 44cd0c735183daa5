package core

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/fr"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	fr_translations "github.com/go-playground/validator/v10/translations/fr"
)

// Languages of the history entries and translated messages, first one is the default.
var Languages = []string{"en", "fr"}

var (
	// custom validation tags & texts
	matriculeTag   = "matricule"
	matriculeText  = "{0} must be an 8-digit matricule"
	matriculeRegex = regexp.MustCompile(`^\d{8}$`)

	slotTag   = "slot"
	slotText  = "{0} must be a document slot identifier"
	slotRegex = regexp.MustCompile(`^[A-Z][A-Z0-9_.]*$`)

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
)

// NewTranslator returns the translator of lang, falling back to english.
func NewTranslator(lang string) ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en, fr.New())
	translator, _ := uni.GetTranslator(lang)
	return translator
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	if translator.Locale() == "fr" {
		_ = fr_translations.RegisterDefaultTranslations(validate, translator)
	} else {
		_ = en_translations.RegisterDefaultTranslations(validate, translator)
	}

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(matriculeTag, matriculeValidation)
	RegisterCustomTranslation(validate, translator, matriculeTag, matriculeText)

	_ = validate.RegisterValidation(slotTag, slotValidation)
	RegisterCustomTranslation(validate, translator, slotTag, slotText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Custom Global Validators

func matriculeValidation(fl validator.FieldLevel) bool {
	return matriculeRegex.MatchString(fl.Field().String())
}

func slotValidation(fl validator.FieldLevel) bool {
	return slotRegex.MatchString(fl.Field().String())
}
