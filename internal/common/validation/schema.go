// internal/common/validation/schema.go
package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"form-pipeline/internal/models"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultMaxImageSize int64 = 5 * 1024 * 1024

	PasswordMismatchMessage = "Passwords do not match"

	// MaxAge keeps a normalized age inside int range on every platform.
	MaxAge = math.MaxInt32
)

// DefaultImageTypes are the MIME types accepted for the optional image.
var DefaultImageTypes = []string{"image/jpeg", "image/jpg", "image/png"}

// Options tune the image rule; zero values fall back to the defaults.
type Options struct {
	MaxImageSize      int64
	AllowedImageTypes []string
}

// Result is either a normalized record or a field-error mapping, never both.
type Result struct {
	Record *models.Record
	Errors models.FieldErrors
	// CrossField names the fields in Errors set by a cross-field check.
	CrossField []string
}

func (r Result) Valid() bool {
	return r.Record != nil && len(r.Errors) == 0
}

// CrossFieldCheck is evaluated after the field rules, and only when neither
// Field nor any of DependsOn already failed. A failure is attributed to Field.
type CrossFieldCheck struct {
	Field     string
	DependsOn []string
	Message   string
	Check     func(in *models.RawInput) bool
}

// Schema validates a RawInput. It is safe for concurrent use once built.
type Schema struct {
	validate     *validator.Validate
	maxImageSize int64
	imageTypes   map[string]struct{}
	messages     map[string]string
	crossChecks  []CrossFieldCheck
}

func NewSchema(opts Options) (*Schema, error) {
	if opts.MaxImageSize <= 0 {
		opts.MaxImageSize = DefaultMaxImageSize
	}
	if len(opts.AllowedImageTypes) == 0 {
		opts.AllowedImageTypes = DefaultImageTypes
	}

	s := &Schema{
		validate:     validator.New(),
		maxImageSize: opts.MaxImageSize,
		imageTypes:   make(map[string]struct{}, len(opts.AllowedImageTypes)),
	}
	for _, t := range opts.AllowedImageTypes {
		s.imageTypes[strings.ToLower(t)] = struct{}{}
	}
	s.messages = defaultMessages(opts.MaxImageSize)
	s.crossChecks = []CrossFieldCheck{
		{
			Field:     models.FieldConfirmPassword,
			DependsOn: []string{models.FieldPassword},
			Message:   PasswordMismatchMessage,
			Check: func(in *models.RawInput) bool {
				return in.ConfirmPassword == in.Password
			},
		},
	}

	s.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	custom := map[string]validator.Func{
		"capitalized": func(fl validator.FieldLevel) bool { return startsCapitalized(fl.Field().String()) },
		"hasupper":    func(fl validator.FieldLevel) bool { return HasUpper(fl.Field().String()) },
		"haslower":    func(fl validator.FieldLevel) bool { return HasLower(fl.Field().String()) },
		"hasdigit":    func(fl validator.FieldLevel) bool { return HasDigit(fl.Field().String()) },
		"hasspecial":  func(fl validator.FieldLevel) bool { return HasSpecial(fl.Field().String()) },
		"nonnegative": func(fl validator.FieldLevel) bool {
			n, err := strconv.ParseFloat(fl.Field().String(), 64)
			return err == nil && n >= 0
		},
		"wholenumber": func(fl validator.FieldLevel) bool {
			n, err := strconv.ParseFloat(fl.Field().String(), 64)
			return err == nil && n == math.Trunc(n)
		},
		"maxage": func(fl validator.FieldLevel) bool {
			n, err := strconv.ParseFloat(fl.Field().String(), 64)
			return err == nil && n <= MaxAge
		},
		"imagesize": func(fl validator.FieldLevel) bool { return fl.Field().Int() <= s.maxImageSize },
		"imagetype": func(fl validator.FieldLevel) bool {
			_, ok := s.imageTypes[strings.ToLower(fl.Field().String())]
			return ok
		},
	}
	for tag, fn := range custom {
		if err := s.validate.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("register %s rule: %w", tag, err)
		}
	}

	return s, nil
}

// MustNewSchema panics if the schema cannot be built.
func MustNewSchema(opts Options) *Schema {
	s, err := NewSchema(opts)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate runs every field independently, then the cross-field checks.
// Each failing field carries the message of its first violated rule.
func (s *Schema) Validate(in models.RawInput) Result {
	fieldErrors := models.FieldErrors{}

	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		errors.As(err, &verrs)
		for _, fe := range verrs {
			field := topLevelField(fe.Namespace())
			if fieldErrors.Has(field) {
				continue
			}
			fieldErrors[field] = s.message(field, fe.Tag())
		}
	}

	var crossField []string
	for _, check := range s.crossChecks {
		if blocked(fieldErrors, check) {
			continue
		}
		if !check.Check(&in) {
			fieldErrors[check.Field] = check.Message
			crossField = append(crossField, check.Field)
		}
	}

	if len(fieldErrors) > 0 {
		return Result{Errors: fieldErrors, CrossField: crossField}
	}
	return Result{Record: normalize(in)}
}

// ValidateFields validates the whole bundle but reports only the listed
// fields. Used for live validation of fields the user already touched.
func (s *Schema) ValidateFields(in models.RawInput, fields ...string) models.FieldErrors {
	all := s.Validate(in).Errors
	out := models.FieldErrors{}
	for _, f := range fields {
		if msg, ok := all[f]; ok {
			out[f] = msg
		}
	}
	return out
}

func (s *Schema) message(field, tag string) string {
	if msg, ok := s.messages[field+"."+tag]; ok {
		return msg
	}
	return fmt.Sprintf("%s is invalid", field)
}

func blocked(fieldErrors models.FieldErrors, check CrossFieldCheck) bool {
	if fieldErrors.Has(check.Field) {
		return true
	}
	for _, dep := range check.DependsOn {
		if fieldErrors.Has(dep) {
			return true
		}
	}
	return false
}

// topLevelField turns "RawInput.image.size" into "image".
func topLevelField(namespace string) string {
	parts := strings.SplitN(namespace, ".", 3)
	if len(parts) < 2 {
		return namespace
	}
	return parts[1]
}

// startsCapitalized matches /^[A-ZА-Я]/: Latin or basic Cyrillic uppercase.
func startsCapitalized(s string) bool {
	for _, r := range s {
		return (r >= 'A' && r <= 'Z') || (r >= 'А' && r <= 'Я')
	}
	return false
}

func normalize(in models.RawInput) *models.Record {
	age, _ := strconv.ParseFloat(in.Age, 64)
	return &models.Record{
		Name:        in.Name,
		Age:         int(age),
		Email:       in.Email,
		Password:    in.Password,
		Gender:      models.Gender(in.Gender),
		AcceptTerms: in.AcceptTerms,
		Country:     in.Country,
		Image:       in.Image,
	}
}

func defaultMessages(maxImageSize int64) map[string]string {
	return map[string]string{
		"name.required":            "Name is required",
		"name.capitalized":         "Name must start with a capital letter",
		"age.required":             "Age is required",
		"age.numeric":              "Age must be a number",
		"age.nonnegative":          "Age cannot be negative",
		"age.wholenumber":          "Age must be a whole number",
		"age.maxage":               "Age is too large",
		"email.required":           "Email is required",
		"email.email":              "Invalid email format",
		"password.required":        "Password is required",
		"password.min":             "Password must contain at least 8 characters",
		"password.hasupper":        "Password must contain at least one uppercase letter",
		"password.haslower":        "Password must contain at least one lowercase letter",
		"password.hasdigit":        "Password must contain at least one number",
		"password.hasspecial":      "Password must contain at least one special character",
		"confirmPassword.required": "Password confirmation is required",
		"gender.required":          "Please select a gender",
		"gender.oneof":             "Please select a valid gender",
		"acceptTerms.required":     "You must accept the terms of use",
		"country.required":         "Please select a country",
		"image.imagesize":          fmt.Sprintf("Image size must not exceed %s", formatMegabytes(maxImageSize)),
		"image.imagetype":          "Only .jpg, .jpeg, .png files are supported",
	}
}

func formatMegabytes(n int64) string {
	mb := float64(n) / (1024 * 1024)
	return strconv.FormatFloat(mb, 'f', -1, 64) + "MB"
}
