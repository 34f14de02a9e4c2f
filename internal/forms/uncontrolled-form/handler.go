// internal/forms/uncontrolled-form/handler.go
package uncontrolledform

import (
	"context"
	"sync"

	"form-pipeline/internal/common/countries"
	"form-pipeline/internal/common/logger"
	"form-pipeline/internal/common/pipeline"
	"form-pipeline/internal/common/validation"
	"form-pipeline/internal/models"
)

const FormType = models.FormTypeUncontrolled

// Handler reads its input handles only when Submit is called. The
// password strength meter and the country field are its only live state.
type Handler struct {
	config   *Config
	handles  Handles
	ctrl     *pipeline.Controller
	country  *countries.Autocomplete
	navigate func(route string)
	logger   logger.Logger

	mu       sync.Mutex
	strength int
	errors   models.FieldErrors
}

// NewHandler builds the uncontrolled variant on top of the shared pipeline
// dependencies in opts. opts.FormType and opts.OnSuccess are set here.
// navigate may be nil.
func NewHandler(config *Config, opts pipeline.Options, handles Handles, index *countries.Index, navigate func(string), log logger.Logger) (*Handler, error) {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	h := &Handler{
		config:   config,
		handles:  handles,
		navigate: navigate,
		logger:   log.WithFields(map[string]interface{}{"formType": string(FormType)}),
		errors:   models.FieldErrors{},
	}
	if index == nil {
		index = countries.Default()
	}
	h.country = countries.NewAutocomplete(index, nil)

	opts.FormType = FormType
	opts.Logger = log
	opts.OnSuccess = h.onSuccess
	ctrl, err := pipeline.New(opts)
	if err != nil {
		return nil, err
	}
	h.ctrl = ctrl
	return h, nil
}

// PasswordChanged refreshes the strength meter from the password handle.
func (h *Handler) PasswordChanged() int {
	score := validation.PasswordStrength(textOf(h.handles.Password))
	h.mu.Lock()
	h.strength = score
	h.mu.Unlock()
	return score
}

func (h *Handler) PasswordStrength() (int, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.strength, validation.StrengthLabel(h.strength)
}

// Country is the autocomplete bound to the country field.
func (h *Handler) Country() *countries.Autocomplete {
	return h.country
}

// Submit reads every handle once and runs the pipeline. Field errors from
// a failed attempt replace the previous ones; other outcomes leave them.
func (h *Handler) Submit(ctx context.Context) pipeline.Result {
	res := h.ctrl.Submit(ctx, h.collect)

	switch res.Outcome {
	case pipeline.OutcomeFailed:
		h.setErrors(res.Errors)
	case pipeline.OutcomeSuccess:
		h.setErrors(models.FieldErrors{})
	case pipeline.OutcomeAborted:
		h.logger.Error("Error submitting form", map[string]interface{}{
			"error": res.Err,
		})
	}
	return res
}

func (h *Handler) Errors() models.FieldErrors {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.errors.Clone()
}

func (h *Handler) IsSubmitting() bool {
	return h.ctrl.IsSubmitting()
}

func (h *Handler) collect() models.RawInput {
	in := models.RawInput{
		Name:            textOf(h.handles.Name),
		Age:             textOf(h.handles.Age),
		Email:           textOf(h.handles.Email),
		Password:        textOf(h.handles.Password),
		ConfirmPassword: textOf(h.handles.ConfirmPassword),
		Gender:          textOf(h.handles.Gender),
		Country:         h.country.Value(),
	}
	if h.handles.AcceptTerms != nil {
		in.AcceptTerms = h.handles.AcceptTerms.Checked()
	}
	if h.handles.Image != nil {
		in.Image = h.handles.Image.File()
	}
	return in
}

func (h *Handler) setErrors(errs models.FieldErrors) {
	h.mu.Lock()
	h.errors = errs.Clone()
	h.mu.Unlock()
}

func (h *Handler) onSuccess(s models.Submission) {
	if h.navigate != nil {
		h.navigate(h.config.ListingRoute)
	}
}
