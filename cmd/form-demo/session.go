// cmd/form-demo/session.go
package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"form-pipeline/internal/common/config"
	"form-pipeline/internal/common/countries"
	apperrors "form-pipeline/internal/common/errors"
	"form-pipeline/internal/common/imaging"
	"form-pipeline/internal/common/logger"
	"form-pipeline/internal/common/metrics"
	"form-pipeline/internal/common/observability"
	"form-pipeline/internal/common/pipeline"
	"form-pipeline/internal/common/store"
	"form-pipeline/internal/common/validation"
	hookform "form-pipeline/internal/forms/hook-form"
	uncontrolledform "form-pipeline/internal/forms/uncontrolled-form"
	"form-pipeline/internal/models"
)

// session is the process-scoped application context: one store shared by
// both form variants, created at startup and dropped at exit.
type session struct {
	cfg     *config.Config
	log     logger.Logger
	metrics *metrics.Metrics
	obs     *observability.Observability
	store   *store.Store
	index   *countries.Index

	inputs       *uncontrolledInputs
	uncontrolled *uncontrolledform.Handler
	hook         *hookform.Handler

	unsubscribe func()
	route       string
}

type uncontrolledInputs struct {
	name, age, email, password, confirm, gender *uncontrolledform.TextInput
	terms                                       *uncontrolledform.Checkbox
	image                                       *uncontrolledform.FileInput
}

func newSession(cfg *config.Config, log logger.Logger) (*session, error) {
	s := &session{
		cfg:     cfg,
		log:     log,
		metrics: metrics.New(),
	}
	s.obs = observability.New(cfg.App.Name, s.metrics.Registry)

	index := countries.Default()
	if cfg.Forms.CountriesFile != "" {
		loaded, err := countries.LoadFile(cfg.Forms.CountriesFile)
		if err != nil {
			return nil, err
		}
		index = loaded
	}
	s.index = index

	schema, err := validation.NewSchema(validation.Options{
		MaxImageSize:      cfg.Forms.Image.MaxSizeBytes,
		AllowedImageTypes: cfg.Forms.Image.AllowedTypes,
	})
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}

	s.store = store.New(store.Options{
		HighlightTimeout: cfg.Forms.HighlightDuration(),
		Logger:           log,
	})
	s.unsubscribe = s.store.Subscribe(func(snap store.Snapshot) {
		log.Debug("Store changed", map[string]interface{}{
			"count":    len(snap.Submissions),
			"latestId": snap.LatestID,
		})
	})

	opts := pipeline.Options{
		Schema:        schema,
		Store:         s.store,
		Encoder:       imaging.NewEncoder(),
		ErrorHandler:  apperrors.NewErrorHandler(log),
		Metrics:       s.metrics,
		Observability: s.obs,
	}
	navigate := func(route string) { s.route = route }

	s.inputs = &uncontrolledInputs{
		name:     uncontrolledform.NewTextInput(""),
		age:      uncontrolledform.NewTextInput(""),
		email:    uncontrolledform.NewTextInput(""),
		password: uncontrolledform.NewTextInput(""),
		confirm:  uncontrolledform.NewTextInput(""),
		gender:   uncontrolledform.NewTextInput(""),
		terms:    uncontrolledform.NewCheckbox(false),
		image:    uncontrolledform.NewFileInput(nil),
	}
	s.uncontrolled, err = uncontrolledform.NewHandler(uncontrolledform.LoadConfig(), opts, uncontrolledform.Handles{
		Name:            s.inputs.name,
		Age:             s.inputs.age,
		Email:           s.inputs.email,
		Password:        s.inputs.password,
		ConfirmPassword: s.inputs.confirm,
		Gender:          s.inputs.gender,
		AcceptTerms:     s.inputs.terms,
		Image:           s.inputs.image,
	}, index, navigate, log)
	if err != nil {
		return nil, err
	}

	s.hook, err = hookform.NewHandler(hookform.LoadConfig(), opts, index, navigate, log)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// parseVariant accepts the form type names and the short "hook" alias.
func parseVariant(name string) (models.FormType, error) {
	switch strings.ToLower(name) {
	case "uncontrolled":
		return models.FormTypeUncontrolled, nil
	case "hook", "hookform":
		return models.FormTypeHookForm, nil
	default:
		return "", fmt.Errorf("unknown variant %q (want uncontrolled or hook)", name)
	}
}

// submit fills the chosen variant from a payload document and submits it.
// A relative image path is resolved against baseDir.
func (s *session) submit(ctx context.Context, variant models.FormType, doc []byte, baseDir string) (pipeline.Result, error) {
	if !config.IsVariantEnabled(s.cfg, string(variant)) {
		return pipeline.Result{}, fmt.Errorf("variant %s is disabled", variant)
	}

	payload, err := validation.DecodePayload(doc)
	if err != nil {
		return pipeline.Result{}, err
	}

	var upload *models.Upload
	if payload.Image != "" {
		path := payload.Image
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		upload, err = imaging.UploadFromFile(path)
		if err != nil {
			return pipeline.Result{}, err
		}
	}

	raw := payload.RawInput()
	switch variant {
	case models.FormTypeUncontrolled:
		s.fillUncontrolled(raw, upload)
		return s.uncontrolled.Submit(ctx), nil
	default:
		if err := s.fillHook(raw, upload); err != nil {
			return pipeline.Result{}, err
		}
		return s.hook.Submit(ctx), nil
	}
}

func (s *session) fillUncontrolled(raw models.RawInput, upload *models.Upload) {
	s.inputs.name.Set(raw.Name)
	s.inputs.age.Set(raw.Age)
	s.inputs.email.Set(raw.Email)
	s.inputs.password.Set(raw.Password)
	s.inputs.confirm.Set(raw.ConfirmPassword)
	s.inputs.gender.Set(raw.Gender)
	s.inputs.terms.Set(raw.AcceptTerms)
	s.inputs.image.Set(upload)
	s.uncontrolled.PasswordChanged()
	s.uncontrolled.Country().Input(raw.Country)
}

func (s *session) fillHook(raw models.RawInput, upload *models.Upload) error {
	form := s.hook.Form()
	form.Reset()

	changes := []struct {
		field string
		value any
	}{
		{models.FieldName, raw.Name},
		{models.FieldAge, raw.Age},
		{models.FieldEmail, raw.Email},
		{models.FieldPassword, raw.Password},
		{models.FieldConfirmPassword, raw.ConfirmPassword},
		{models.FieldGender, raw.Gender},
		{models.FieldAcceptTerms, raw.AcceptTerms},
	}
	for _, c := range changes {
		if err := form.OnChange(c.field, c.value); err != nil {
			return err
		}
	}
	form.CountryInput(raw.Country)
	form.SetImage(upload)
	return nil
}

func (s *session) close(ctx context.Context) {
	s.unsubscribe()
	s.store.Close()
	if err := s.obs.Shutdown(ctx); err != nil {
		s.log.Warn("Observability shutdown failed", map[string]interface{}{"error": err})
	}
}
