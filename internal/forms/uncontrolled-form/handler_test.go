// internal/forms/uncontrolled-form/handler_test.go
package uncontrolledform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"form-pipeline/internal/common/imaging"
	"form-pipeline/internal/common/logger"
	"form-pipeline/internal/common/pipeline"
	"form-pipeline/internal/common/store"
	"form-pipeline/internal/common/validation"
	"form-pipeline/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type testForm struct {
	name, age, email, password, confirm, gender *TextInput
	terms                                       *Checkbox
	image                                       *FileInput
}

func newTestForm() *testForm {
	return &testForm{
		name:     NewTextInput("Ann"),
		age:      NewTextInput("30"),
		email:    NewTextInput("a@b.com"),
		password: NewTextInput("Abcdef1!"),
		confirm:  NewTextInput("Abcdef1!"),
		gender:   NewTextInput("female"),
		terms:    NewCheckbox(true),
		image:    NewFileInput(nil),
	}
}

func (f *testForm) handles() Handles {
	return Handles{
		Name:            f.name,
		Age:             f.age,
		Email:           f.email,
		Password:        f.password,
		ConfirmPassword: f.confirm,
		Gender:          f.gender,
		AcceptTerms:     f.terms,
		Image:           f.image,
	}
}

func createTestHandler(t *testing.T, form *testForm) (*Handler, *store.Store, *[]string) {
	t.Helper()
	st := store.New(store.Options{})
	var routes []string
	h, err := NewHandler(
		LoadConfig(),
		pipeline.Options{
			Schema: validation.MustNewSchema(validation.Options{}),
			Store:  st,
		},
		form.handles(),
		nil,
		func(route string) { routes = append(routes, route) },
		logger.NewTestLogger(t),
	)
	require.NoError(t, err)
	h.Country().Select("France")
	return h, st, &routes
}

// ==========================
// Submit
// ==========================

func TestHandler_Submit(t *testing.T) {
	tests := []struct {
		name     string
		modify   func(f *testForm, h *Handler)
		validate func(t *testing.T, h *Handler, st *store.Store, routes []string, res pipeline.Result)
	}{
		{
			name:   "valid form is stored and navigates to the listing",
			modify: func(*testForm, *Handler) {},
			validate: func(t *testing.T, h *Handler, st *store.Store, routes []string, res pipeline.Result) {
				require.Equal(t, pipeline.OutcomeSuccess, res.Outcome)
				assert.Equal(t, models.FormTypeUncontrolled, res.Submission.FormType)
				assert.Equal(t, "France", res.Submission.Country)
				assert.False(t, res.Submission.HasImage())
				assert.Equal(t, 1, st.Len())
				assert.Equal(t, []string{"/"}, routes)
				assert.Empty(t, h.Errors())
			},
		},
		{
			name: "lowercase name reports only the name",
			modify: func(f *testForm, _ *Handler) {
				f.name.Set("ann")
			},
			validate: func(t *testing.T, h *Handler, st *store.Store, routes []string, res pipeline.Result) {
				assert.Equal(t, pipeline.OutcomeFailed, res.Outcome)
				assert.Equal(t, models.FieldErrors{"name": "Name must start with a capital letter"}, h.Errors())
				assert.Zero(t, st.Len())
				assert.Empty(t, routes)
			},
		},
		{
			name: "6MB image reports only the image",
			modify: func(f *testForm, _ *Handler) {
				f.image.Set(imaging.UploadFromBytes("big.png", "image/png", make([]byte, 6*1024*1024)))
			},
			validate: func(t *testing.T, h *Handler, st *store.Store, _ []string, res pipeline.Result) {
				assert.Equal(t, pipeline.OutcomeFailed, res.Outcome)
				assert.Equal(t, []string{"image"}, h.Errors().Fields())
				assert.Zero(t, st.Len())
			},
		},
		{
			name: "empty form reports every required field",
			modify: func(f *testForm, h *Handler) {
				for _, in := range []*TextInput{f.name, f.age, f.email, f.password, f.confirm, f.gender} {
					in.Set("")
				}
				f.terms.Set(false)
				h.Country().Input("")
			},
			validate: func(t *testing.T, h *Handler, _ *store.Store, _ []string, res pipeline.Result) {
				assert.Equal(t, pipeline.OutcomeFailed, res.Outcome)
				assert.Equal(t, models.FieldErrors{
					"name":            "Name is required",
					"age":             "Age is required",
					"email":           "Email is required",
					"password":        "Password is required",
					"confirmPassword": "Password confirmation is required",
					"gender":          "Please select a gender",
					"acceptTerms":     "You must accept the terms of use",
					"country":         "Please select a country",
				}, h.Errors())
			},
		},
		{
			name: "typed country outside the list is accepted",
			modify: func(_ *testForm, h *Handler) {
				h.Country().Input("Atlantis")
			},
			validate: func(t *testing.T, _ *Handler, _ *store.Store, _ []string, res pipeline.Result) {
				require.Equal(t, pipeline.OutcomeSuccess, res.Outcome)
				assert.Equal(t, "Atlantis", res.Submission.Country)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := newTestForm()
			h, st, routes := createTestHandler(t, form)
			tt.modify(form, h)

			res := h.Submit(context.Background())

			tt.validate(t, h, st, *routes, res)
			assert.False(t, h.IsSubmitting())
		})
	}
}

func TestHandler_ErrorsClearedAfterSuccess(t *testing.T) {
	form := newTestForm()
	h, _, _ := createTestHandler(t, form)

	form.email.Set("not-an-email")
	h.Submit(context.Background())
	assert.Equal(t, "Invalid email format", h.Errors()["email"])

	form.email.Set("a@b.com")
	require.Equal(t, pipeline.OutcomeSuccess, h.Submit(context.Background()).Outcome)
	assert.Empty(t, h.Errors())
}

func TestHandler_HandlesReadOnlyAtSubmit(t *testing.T) {
	form := newTestForm()
	h, _, _ := createTestHandler(t, form)

	form.name.Set("bob")
	form.name.Set("Bob")

	res := h.Submit(context.Background())
	require.Equal(t, pipeline.OutcomeSuccess, res.Outcome)
	assert.Equal(t, "Bob", res.Submission.Name)
}

func TestHandler_PasswordStrength(t *testing.T) {
	form := newTestForm()
	h, _, _ := createTestHandler(t, form)

	score, label := h.PasswordStrength()
	assert.Equal(t, 0, score, "meter only moves on change events")
	assert.Equal(t, "Enter password", label)

	form.password.Set("abc")
	assert.Equal(t, 1, h.PasswordChanged())

	form.password.Set("Abc1!")
	h.PasswordChanged()
	score, label = h.PasswordStrength()
	assert.Equal(t, 4, score)
	assert.Equal(t, "Strong", label)
}

func TestHandler_NilHandlesReadEmpty(t *testing.T) {
	h, err := NewHandler(LoadConfig(), pipeline.Options{
		Schema: validation.MustNewSchema(validation.Options{}),
		Store:  store.New(store.Options{}),
	}, Handles{}, nil, nil, nil)
	require.NoError(t, err)

	res := h.Submit(context.Background())
	assert.Equal(t, pipeline.OutcomeFailed, res.Outcome)
	assert.Len(t, h.Errors(), 8)
}
