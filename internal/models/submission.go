// internal/models/submission.go
package models

import (
	"io"
	"sort"
	"time"
)

// FormType tags which input pipeline produced a submission.
type FormType string

const (
	FormTypeUncontrolled FormType = "uncontrolled"
	FormTypeHookForm     FormType = "hookForm"
)

// Valid reports whether f is one of the known form types.
func (f FormType) Valid() bool {
	return f == FormTypeUncontrolled || f == FormTypeHookForm
}

// Title is the heading shown above a submission card.
func (f FormType) Title() string {
	switch f {
	case FormTypeUncontrolled:
		return "Uncontrolled Form"
	case FormTypeHookForm:
		return "React Hook Form"
	default:
		return string(f)
	}
}

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Upload describes a file picked in a file input. Open is called once per
// encode and the caller closes the returned reader.
type Upload struct {
	Name        string                        `json:"name" form:"name"`
	Size        int64                         `json:"size" form:"size" validate:"imagesize"`
	ContentType string                        `json:"type" form:"type" validate:"imagetype"`
	Open        func() (io.ReadCloser, error) `json:"-" form:"-"`
}

// RawInput is the bundle of field values delivered at submit time, before
// any coercion. Age stays textual so that "not a number" can be reported.
type RawInput struct {
	Name            string  `json:"name" form:"name" validate:"required,capitalized"`
	Age             string  `json:"age" form:"age" validate:"required,numeric,nonnegative,wholenumber,maxage"`
	Email           string  `json:"email" form:"email" validate:"required,email"`
	Password        string  `json:"-" form:"password" validate:"required,min=8,hasupper,haslower,hasdigit,hasspecial"`
	ConfirmPassword string  `json:"-" form:"confirmPassword" validate:"required"`
	Gender          string  `json:"gender" form:"gender" validate:"required,oneof=male female"`
	AcceptTerms     bool    `json:"acceptTerms" form:"acceptTerms" validate:"required"`
	Country         string  `json:"country" form:"country" validate:"required"`
	Image           *Upload `json:"image,omitempty" form:"image"`
}

// Field names as they appear in FieldErrors.
const (
	FieldName            = "name"
	FieldAge             = "age"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
	FieldGender          = "gender"
	FieldAcceptTerms     = "acceptTerms"
	FieldCountry         = "country"
	FieldImage           = "image"
)

// Fields lists every input field in form order.
var Fields = []string{
	FieldName, FieldAge, FieldEmail, FieldPassword, FieldConfirmPassword,
	FieldGender, FieldAcceptTerms, FieldCountry, FieldImage,
}

// Record is a validated input bundle with every field coerced to its
// native type. The image is still a file at this stage.
type Record struct {
	Name        string
	Age         int
	Email       string
	Password    string
	Gender      Gender
	AcceptTerms bool
	Country     string
	Image       *Upload
}

// Submission is one stored result of a successful form completion. It is a
// value type; copies handed out by the store cannot change stored state.
type Submission struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Age         int       `json:"age"`
	Email       string    `json:"email"`
	Password    string    `json:"-"`
	Gender      Gender    `json:"gender"`
	AcceptTerms bool      `json:"acceptTerms"`
	Country     string    `json:"country"`
	Image       string    `json:"image,omitempty"`
	FormType    FormType  `json:"formType"`
	Timestamp   time.Time `json:"timestamp"`
}

// HasImage reports whether an encoded image is attached. An empty Image is
// the "no image" marker.
func (s Submission) HasImage() bool {
	return s.Image != ""
}

// FieldErrors maps a field name to the single message for its first
// violated rule.
type FieldErrors map[string]string

func (e FieldErrors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Fields returns the failing field names in form order; unknown names sort
// after known ones.
func (e FieldErrors) Fields() []string {
	order := make(map[string]int, len(Fields))
	for i, f := range Fields {
		order[f] = i
	}
	out := make([]string, 0, len(e))
	for f := range e {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		oi, iok := order[out[i]]
		oj, jok := order[out[j]]
		switch {
		case iok && jok:
			return oi < oj
		case iok != jok:
			return iok
		default:
			return out[i] < out[j]
		}
	})
	return out
}

// Clone returns an independent copy.
func (e FieldErrors) Clone() FieldErrors {
	if e == nil {
		return nil
	}
	out := make(FieldErrors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}
