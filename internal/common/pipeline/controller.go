// internal/common/pipeline/controller.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	apperrors "form-pipeline/internal/common/errors"
	"form-pipeline/internal/common/imaging"
	"form-pipeline/internal/common/logger"
	"form-pipeline/internal/common/metrics"
	"form-pipeline/internal/common/observability"
	"form-pipeline/internal/common/validation"
	"form-pipeline/internal/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
)

// ErrSubmitInProgress matches, via errors.Is, the Result.Err of a submit
// trigger that arrived while another attempt was running. Callers do not
// surface it.
var ErrSubmitInProgress error = &apperrors.StandardError{
	Code:    apperrors.ErrCodeSubmitInProgress,
	Message: "A submission is already in progress",
}

type State int32

const (
	StateIdle State = iota
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

type Outcome string

const (
	OutcomeSuccess Outcome = metrics.OutcomeSuccess
	OutcomeFailed  Outcome = metrics.OutcomeFailed
	OutcomeAborted Outcome = metrics.OutcomeAborted
	OutcomeIgnored Outcome = metrics.OutcomeIgnored
)

// Result of one submit trigger. Submission is set only on success, Errors
// only on validation failure.
type Result struct {
	Outcome    Outcome
	Submission *models.Submission
	Errors     models.FieldErrors
	Err        error
}

// Collector reads the raw field values at submit time.
type Collector func() models.RawInput

type Validator interface {
	Validate(in models.RawInput) validation.Result
}

type Encoder interface {
	Encode(ctx context.Context, upload models.Upload) (string, error)
}

type Store interface {
	AppendStamped(s models.Submission, now time.Time) (models.Submission, error)
	Len() int
}

type Options struct {
	FormType models.FormType
	Schema   Validator
	Store    Store
	Encoder  Encoder
	Logger   logger.Logger

	ErrorHandler  *apperrors.ErrorHandler
	Metrics       *metrics.Metrics
	Observability *observability.Observability

	Now   func() time.Time
	NewID func() string

	// OnSuccess runs after the append, e.g. to navigate to the listing.
	OnSuccess func(models.Submission)
}

// Controller drives Idle -> Submitting -> Idle for one form variant.
type Controller struct {
	formType models.FormType
	schema   Validator
	store    Store
	encoder  Encoder
	logger   logger.Logger
	errs     *apperrors.ErrorHandler
	metrics  *metrics.Metrics
	obs      *observability.Observability
	now      func() time.Time
	newID    func() string
	success  func(models.Submission)

	state atomic.Int32
}

func New(opts Options) (*Controller, error) {
	if !opts.FormType.Valid() {
		return nil, fmt.Errorf("unknown form type %q", opts.FormType)
	}
	if opts.Schema == nil {
		return nil, errors.New("pipeline requires a schema")
	}
	if opts.Store == nil {
		return nil, errors.New("pipeline requires a store")
	}
	if opts.Encoder == nil {
		opts.Encoder = imaging.NewEncoder()
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}
	log := opts.Logger.WithFields(map[string]interface{}{"formType": string(opts.FormType)})
	if opts.ErrorHandler == nil {
		opts.ErrorHandler = apperrors.NewErrorHandler(log)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	return &Controller{
		formType: opts.FormType,
		schema:   opts.Schema,
		store:    opts.Store,
		encoder:  opts.Encoder,
		logger:   log,
		errs:     opts.ErrorHandler,
		metrics:  opts.Metrics,
		obs:      opts.Observability,
		now:      opts.Now,
		newID:    opts.NewID,
		success:  opts.OnSuccess,
	}, nil
}

func (c *Controller) FormType() models.FormType {
	return c.formType
}

func (c *Controller) State() State {
	return State(c.state.Load())
}

func (c *Controller) IsSubmitting() bool {
	return c.State() == StateSubmitting
}

// Submit runs one attempt. A trigger that arrives while another attempt is
// in flight is dropped with OutcomeIgnored and nothing is collected.
func (c *Controller) Submit(ctx context.Context, collect Collector) Result {
	if !c.state.CompareAndSwap(int32(StateIdle), int32(StateSubmitting)) {
		c.logger.Debug("Submit ignored while another attempt is running", nil)
		c.countAttempt(OutcomeIgnored)
		return Result{Outcome: OutcomeIgnored, Err: apperrors.NewSubmitInProgressError(string(c.formType))}
	}
	defer c.state.Store(int32(StateIdle))

	start := time.Now()
	ctx, finish := c.begin(ctx)
	result := c.run(ctx, collect)
	finish(result, time.Since(start))
	return result
}

func (c *Controller) run(ctx context.Context, collect Collector) Result {
	c.logger.Info("Submit started", nil)

	raw := collect()
	validated := c.schema.Validate(raw)
	if !validated.Valid() {
		return c.rejected(ctx, validated)
	}
	record := validated.Record

	var image string
	if record.Image != nil {
		encoded, err := c.encoder.Encode(ctx, *record.Image)
		if err != nil {
			if c.metrics != nil {
				c.metrics.EncodeFailures.WithLabelValues(string(c.formType)).Inc()
			}
			stdErr := c.errs.HandleSubmitError(ctx, string(c.formType), apperrors.NewImageEncodeError(record.Image.Name, err))
			return Result{Outcome: OutcomeAborted, Err: stdErr}
		}
		image = encoded
	}

	submission := models.Submission{
		ID:          c.newID(),
		Name:        record.Name,
		Age:         record.Age,
		Email:       record.Email,
		Password:    record.Password,
		Gender:      record.Gender,
		AcceptTerms: record.AcceptTerms,
		Country:     record.Country,
		Image:       image,
		FormType:    c.formType,
	}

	submission, err := c.store.AppendStamped(submission, c.now())
	if err != nil {
		stdErr := c.errs.HandleSubmitError(ctx, string(c.formType), apperrors.NewInternalError(err))
		return Result{Outcome: OutcomeAborted, Err: stdErr}
	}
	if c.metrics != nil {
		c.metrics.StoredSubmissions.Set(float64(c.store.Len()))
	}

	c.logger.Info("Submission stored", map[string]interface{}{
		"submissionId": submission.ID,
		"hasImage":     submission.HasImage(),
	})
	if c.success != nil {
		c.success(submission)
	}
	return Result{Outcome: OutcomeSuccess, Submission: &submission}
}

func (c *Controller) rejected(ctx context.Context, validated validation.Result) Result {
	var err *apperrors.StandardError
	if len(validated.CrossField) == len(validated.Errors) && len(validated.CrossField) == 1 {
		field := validated.CrossField[0]
		err = apperrors.NewCrossFieldValidationError(field, validated.Errors[field])
	} else {
		err = apperrors.NewFieldValidationError(validated.Errors)
	}

	if c.metrics != nil {
		for field := range validated.Errors {
			c.metrics.FieldErrors.WithLabelValues(string(c.formType), field).Inc()
		}
	}
	c.logger.Debug("Validation failed", map[string]interface{}{
		"errorCount": len(validated.Errors),
		"fields":     validated.Errors.Fields(),
	})

	return Result{
		Outcome: OutcomeFailed,
		Errors:  validated.Errors,
		Err:     c.errs.HandleSubmitError(ctx, string(c.formType), err),
	}
}

func (c *Controller) begin(ctx context.Context) (context.Context, func(Result, time.Duration)) {
	if c.obs == nil {
		return ctx, func(r Result, d time.Duration) {
			c.countAttempt(r.Outcome)
			c.observeDuration(d)
		}
	}

	ctx, span := c.obs.StartAttempt(ctx, string(c.formType))
	return ctx, func(r Result, d time.Duration) {
		c.countAttempt(r.Outcome)
		c.observeDuration(d)
		c.obs.RecordAttempt(ctx, string(c.formType), string(r.Outcome), d)

		if r.Outcome == OutcomeSuccess {
			span.SetStatus(codes.Ok, "")
		} else {
			if r.Err != nil {
				span.RecordError(r.Err)
			}
			span.SetStatus(codes.Error, string(r.Outcome))
		}
		span.End()
	}
}

func (c *Controller) countAttempt(outcome Outcome) {
	if c.metrics == nil {
		return
	}
	c.metrics.SubmitAttempts.WithLabelValues(string(c.formType), string(outcome)).Inc()
}

func (c *Controller) observeDuration(d time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.SubmitDuration.WithLabelValues(string(c.formType)).Observe(d.Seconds())
}
