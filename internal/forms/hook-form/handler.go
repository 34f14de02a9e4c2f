// internal/forms/hook-form/handler.go
package hookform

import (
	"context"
	"errors"

	"form-pipeline/internal/common/countries"
	"form-pipeline/internal/common/logger"
	"form-pipeline/internal/common/pipeline"
	"form-pipeline/internal/models"
)

const FormType = models.FormTypeHookForm

type Handler struct {
	config   *Config
	form     *Form
	ctrl     *pipeline.Controller
	navigate func(route string)
	logger   logger.Logger
}

// NewHandler builds the managed variant. opts.Schema must also implement
// FieldValidator for live validation; *validation.Schema does.
func NewHandler(config *Config, opts pipeline.Options, index *countries.Index, navigate func(string), log logger.Logger) (*Handler, error) {
	fv, ok := opts.Schema.(FieldValidator)
	if !ok {
		return nil, errors.New("hook form schema must support per-field validation")
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	h := &Handler{
		config:   config,
		form:     NewForm(config.Mode, fv, index),
		navigate: navigate,
		logger:   log.WithFields(map[string]interface{}{"formType": string(FormType)}),
	}

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

func (h *Handler) Form() *Form {
	return h.form
}

// Submit validates the current values and runs the pipeline.
func (h *Handler) Submit(ctx context.Context) pipeline.Result {
	res := h.ctrl.Submit(ctx, h.form.submitValues)

	switch res.Outcome {
	case pipeline.OutcomeFailed:
		h.form.setErrors(res.Errors)
	case pipeline.OutcomeSuccess:
		h.form.setErrors(models.FieldErrors{})
	case pipeline.OutcomeAborted:
		h.logger.Error("Error submitting form", map[string]interface{}{
			"error": res.Err,
		})
	}
	return res
}

func (h *Handler) Errors() models.FieldErrors {
	return h.form.Errors()
}

func (h *Handler) IsSubmitting() bool {
	return h.ctrl.IsSubmitting()
}

func (h *Handler) Reset() {
	h.form.Reset()
}

func (h *Handler) onSuccess(models.Submission) {
	if h.navigate != nil {
		h.navigate(h.config.ListingRoute)
	}
}
