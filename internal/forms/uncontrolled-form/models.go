// internal/forms/uncontrolled-form/models.go
package uncontrolledform

import (
	"sync"

	"form-pipeline/internal/models"
)

// TextHandle is a text-like input whose value is only read at submit time.
type TextHandle interface {
	Value() string
}

type CheckHandle interface {
	Checked() bool
}

// FileHandle yields the picked file, or nil when nothing is selected.
type FileHandle interface {
	File() *models.Upload
}

// Handles are the input elements the form reads on submit. Country is not
// here: it lives in the autocomplete owned by the Handler. A nil handle
// reads as empty.
type Handles struct {
	Name            TextHandle
	Age             TextHandle
	Email           TextHandle
	Password        TextHandle
	ConfirmPassword TextHandle
	Gender          TextHandle
	AcceptTerms     CheckHandle
	Image           FileHandle
}

// TextInput is an in-memory TextHandle.
type TextInput struct {
	mu    sync.Mutex
	value string
}

func NewTextInput(value string) *TextInput {
	return &TextInput{value: value}
}

func (t *TextInput) Set(value string) {
	t.mu.Lock()
	t.value = value
	t.mu.Unlock()
}

func (t *TextInput) Value() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value
}

type Checkbox struct {
	mu      sync.Mutex
	checked bool
}

func NewCheckbox(checked bool) *Checkbox {
	return &Checkbox{checked: checked}
}

func (c *Checkbox) Set(checked bool) {
	c.mu.Lock()
	c.checked = checked
	c.mu.Unlock()
}

func (c *Checkbox) Checked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checked
}

type FileInput struct {
	mu   sync.Mutex
	file *models.Upload
}

func NewFileInput(file *models.Upload) *FileInput {
	return &FileInput{file: file}
}

func (f *FileInput) Set(file *models.Upload) {
	f.mu.Lock()
	f.file = file
	f.mu.Unlock()
}

func (f *FileInput) File() *models.Upload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.file
}

func textOf(h TextHandle) string {
	if h == nil {
		return ""
	}
	return h.Value()
}
