// internal/forms/hook-form/form.go
package hookform

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"form-pipeline/internal/common/countries"
	"form-pipeline/internal/common/validation"
	"form-pipeline/internal/models"
)

// FieldValidator is the part of the schema the form needs for live
// validation.
type FieldValidator interface {
	ValidateFields(in models.RawInput, fields ...string) models.FieldErrors
}

// Form is the managed state holder: every edit goes through OnChange and
// the current values are always available.
type Form struct {
	mode    Mode
	schema  FieldValidator
	country *countries.Autocomplete

	mu        sync.Mutex
	values    models.RawInput
	touched   map[string]bool
	submitted bool
	errors    models.FieldErrors
}

func NewForm(mode Mode, schema FieldValidator, index *countries.Index) *Form {
	if index == nil {
		index = countries.Default()
	}
	f := &Form{
		mode:    mode,
		schema:  schema,
		touched: make(map[string]bool),
		errors:  models.FieldErrors{},
	}
	f.country = countries.NewAutocomplete(index, func(v string) {
		_ = f.OnChange(models.FieldCountry, v)
	})
	return f
}

// OnChange sets one field and revalidates. Text fields take a string, age
// also takes a number, acceptTerms takes a bool, image takes *models.Upload
// or nil.
func (f *Form) OnChange(field string, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.assign(field, value); err != nil {
		return err
	}
	if field == models.FieldCountry {
		f.country.SetValue(f.values.Country)
	}
	f.touched[field] = true
	if f.mode == ModeOnChange || f.submitted {
		f.revalidateLocked()
	}
	return nil
}

// SetImage is the file input's change handler.
func (f *Form) SetImage(upload *models.Upload) {
	_ = f.OnChange(models.FieldImage, upload)
}

// Country is the autocomplete feeding the country field. Typing into it
// keeps the field in sync as well as selecting.
func (f *Form) Country() *countries.Autocomplete {
	return f.country
}

// CountryInput mirrors a keystroke in the country box into the field.
func (f *Form) CountryInput(text string) {
	f.country.Input(text)
	_ = f.OnChange(models.FieldCountry, text)
}

// Validate checks every field and returns the errors now displayed.
func (f *Form) Validate() models.FieldErrors {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, field := range models.Fields {
		f.touched[field] = true
	}
	f.submitted = true
	f.revalidateLocked()
	return f.errors.Clone()
}

func (f *Form) Values() models.RawInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

func (f *Form) Errors() models.FieldErrors {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errors.Clone()
}

func (f *Form) Touched(field string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.touched[field]
}

// PasswordStrength follows the current password value.
func (f *Form) PasswordStrength() (int, string) {
	f.mu.Lock()
	score := validation.PasswordStrength(f.values.Password)
	f.mu.Unlock()
	return score, validation.StrengthLabel(score)
}

// Reset returns the form to its initial empty state.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = models.RawInput{}
	f.touched = make(map[string]bool)
	f.submitted = false
	f.errors = models.FieldErrors{}
	f.country.Input("")
}

// submitValues is the pipeline collector: it marks every field touched so
// later edits revalidate live, and hands over a snapshot.
func (f *Form) submitValues() models.RawInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, field := range models.Fields {
		f.touched[field] = true
	}
	f.submitted = true
	return f.values
}

func (f *Form) setErrors(errs models.FieldErrors) {
	f.mu.Lock()
	f.errors = errs.Clone()
	f.mu.Unlock()
}

func (f *Form) revalidateLocked() {
	fields := make([]string, 0, len(f.touched))
	for field := range f.touched {
		fields = append(fields, field)
	}
	f.errors = f.schema.ValidateFields(f.values, fields...)
}

func (f *Form) assign(field string, value any) error {
	switch field {
	case models.FieldAge:
		s, err := ageText(value)
		if err != nil {
			return err
		}
		f.values.Age = s
		return nil
	case models.FieldAcceptTerms:
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("%s expects a bool, got %T", field, value)
		}
		f.values.AcceptTerms = b
		return nil
	case models.FieldImage:
		switch v := value.(type) {
		case nil:
			f.values.Image = nil
		case *models.Upload:
			f.values.Image = v
		default:
			return fmt.Errorf("%s expects *models.Upload, got %T", field, value)
		}
		return nil
	}

	target := f.textField(field)
	if target == nil {
		return fmt.Errorf("unknown field %q", field)
	}
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("%s expects a string, got %T", field, value)
	}
	*target = s
	return nil
}

func (f *Form) textField(field string) *string {
	switch field {
	case models.FieldName:
		return &f.values.Name
	case models.FieldEmail:
		return &f.values.Email
	case models.FieldPassword:
		return &f.values.Password
	case models.FieldConfirmPassword:
		return &f.values.ConfirmPassword
	case models.FieldGender:
		return &f.values.Gender
	case models.FieldCountry:
		return &f.values.Country
	default:
		return nil
	}
}

func ageText(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("%s expects a number or string, got %T", models.FieldAge, value)
	}
}
