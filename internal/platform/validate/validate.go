// Package validate wraps go-playground/validator with english translations
// and maps failures onto project errors
package validate

import (
	"reflect"
	"strings"
	"sync"

	perr "tzedge/internal/platform/errors"
	"tzedge/internal/platform/logger"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// StructLevel aliases validator.StructLevel
type StructLevel = validator.StructLevel

// FieldError aliases validator.FieldError
type FieldError = validator.FieldError

// Svc holds a singleton validator and translator
type Svc struct {
	Validator  *validator.Validate
	Translator ut.Translator
}

var (
	vOnce sync.Once
	vSvc  *Svc
)

// Get returns the validator singleton, initializing on first use
func Get() *Svc {
	vOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())

		// prefer json tag names in messages
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})

		_ = en_translations.RegisterDefaultTranslations(v, trans)

		svc := &Svc{Validator: v, Translator: trans}
		svc.RegisterMessage("min", "{0} must be at least {1}")
		svc.RegisterMessage("max", "{0} must be at most {1}")
		vSvc = svc
	})
	return vSvc
}

// RegisterMessage installs a short translation for tag. {0} is the field, {1} the param
func (s *Svc) RegisterMessage(tag, text string) {
	_ = s.Validator.RegisterTranslation(tag, s.Translator,
		func(u ut.Translator) error {
			return u.Add(tag, text, true)
		},
		func(u ut.Translator, fe validator.FieldError) string {
			msg, _ := u.T(tag, fe.Field(), fe.Param())
			return msg
		},
	)
}

// RegisterStruct installs a struct-level rule for the given types
func (s *Svc) RegisterStruct(fn func(StructLevel), types ...any) {
	s.Validator.RegisterStructValidation(fn, types...)
}

// Struct validates v and returns the first failure as a perr error with code and field set
func (s *Svc) Struct(v any, code perr.ErrorCode) error {
	err := s.Validator.Struct(v)
	if err == nil {
		return nil
	}
	if inv, ok := err.(*validator.InvalidValidationError); ok {
		logger.Named("validate").Error().Err(inv).Msg("validator internal error")
		return perr.Wrap(inv, perr.ErrorCodeValidation, "validation error")
	}
	field, msg := s.FieldAndMessage(err)
	return perr.WithField(perr.Newf(code, "%s", msg), field)
}

// FieldAndMessage returns the first field and translated message
func (s *Svc) FieldAndMessage(err error) (field, message string) {
	if err == nil {
		return "", ""
	}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			return fe.Field(), fe.Translate(s.Translator)
		}
	}
	return "", err.Error()
}
