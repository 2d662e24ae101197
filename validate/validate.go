package validate

import (
	"errors"
	"fmt"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/google/uuid"
)

var validate *validator.Validate

var translator ut.Translator

func init() {

	validate = validator.New()

	translator, _ = ut.New(en.New(), en.New()).GetTranslator("en")
	en_translations.RegisterDefaultTranslations(validate, translator)
}

func Check(val any) error {
	if err := validate.Struct(val); err != nil {
		return translate(err)
	}

	return nil
}

func translate(err error) error {
	verrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	if len(verrors) < 1 {
		return nil
	}

	return errors.New(verrors[0].Translate(translator))
}

func GenerateID() string {
	return uuid.NewString()
}

// CheckID accepts the identifiers the course API hands out: 24 character
// hex object ids, uuids, or other short url-safe tokens.
func CheckID(id string) error {
	if err := validate.Var(id, "required,max=64,alphanum|uuid"); err != nil {
		return fmt.Errorf("ID is not in its proper form: %w", translate(err))
	}
	return nil
}

// CheckURL validates an absolute URL such as a hosted checkout session URL.
func CheckURL(raw string) error {
	if err := validate.Var(raw, "required,url"); err != nil {
		return fmt.Errorf("url is not valid: %w", translate(err))
	}
	return nil
}
