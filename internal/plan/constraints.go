package plan

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Constraints are the user inputs a plan is generated from.
type Constraints struct {
	Subject              string    `json:"subject" validate:"notblank"`
	Goal                 string    `json:"goal"`
	Deadline             time.Time `json:"deadline" validate:"required"`
	PreferredSlots       []Slot    `json:"preferred_slots" validate:"required,min=1,unique,dive,slot"`
	Restrictions         []string  `json:"restrictions"`
	LearningStyle        string    `json:"learning_style" validate:"omitempty,oneof=visual auditory reading kinesthetic"`
	DifficultyPreference string    `json:"difficulty_preference" validate:"omitempty,oneof=easy moderate challenging"`
	Difficulty           float64   `json:"difficulty" validate:"min=0,max=10"`
}

var (
	validate   *validator.Validate
	translator ut.Translator

	notBlankTag = "notblank"
	slotTag     = "slot"
)

func init() {
	validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Report JSON names, not Go field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	_ = validate.RegisterValidation(slotTag, slotValidation)

	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range []string{notBlankTag, slotTag} {
		_ = validate.RegisterTranslation(tag, translator, registerFn, translateCustomErrs)
	}
}

func translateCustomErrs(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return "this field cannot be blank"
	case slotTag:
		return "must be one of Morning, Afternoon, Evening, Night"
	default:
		return ""
	}
}

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

func slotValidation(fl validator.FieldLevel) bool {
	return Slot(fl.Field().String()).Valid()
}

// Validate checks c against its field rules and requires the deadline to
// be strictly after now.
func (c Constraints) Validate(now time.Time) error {
	if err := validate.Struct(c); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return &ValidationError{Err: err}
		}
		fields := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, FieldError{
				Field:   fe.Field(),
				Message: fe.Translate(translator),
			})
		}
		return NewValidationError("invalid constraints", fields...)
	}
	if !c.Deadline.After(now) {
		return NewValidationError("deadline must be in the future",
			FieldError{Field: "deadline", Message: "must be after " + now.Format(time.RFC3339)})
	}
	return nil
}
