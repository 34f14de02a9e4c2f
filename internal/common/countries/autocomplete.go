// internal/common/countries/autocomplete.go
package countries

import "strings"

// Autocomplete is the state behind a country text input with a suggestion
// list. Typed values are kept as-is; nothing forces list membership.
type Autocomplete struct {
	index       *Index
	value       string
	suggestions []string
	open        bool
	onChange    func(string)
}

// NewAutocomplete starts empty. onChange fires when a suggestion is
// selected and may be nil.
func NewAutocomplete(index *Index, onChange func(string)) *Autocomplete {
	return &Autocomplete{
		index:       index,
		suggestions: []string{},
		onChange:    onChange,
	}
}

// Input handles a keystroke. A blank value hides the list.
func (a *Autocomplete) Input(text string) {
	a.value = text
	if strings.TrimSpace(text) == "" {
		a.suggestions = []string{}
		a.open = false
		return
	}
	a.suggestions = a.index.Suggest(text)
	a.open = true
}

// Focus reopens the list if there is something to show.
func (a *Autocomplete) Focus() {
	if strings.TrimSpace(a.value) != "" && len(a.suggestions) > 0 {
		a.open = true
	}
}

// Select commits a suggestion as the value and closes the list.
func (a *Autocomplete) Select(country string) {
	a.value = country
	a.open = false
	if a.onChange != nil {
		a.onChange(country)
	}
}

// Dismiss closes the list after a click outside the widget.
func (a *Autocomplete) Dismiss() {
	a.open = false
}

// SetValue syncs the input with an externally held value.
func (a *Autocomplete) SetValue(v string) {
	a.value = v
}

func (a *Autocomplete) Value() string {
	return a.value
}

func (a *Autocomplete) Suggestions() []string {
	out := make([]string, len(a.suggestions))
	copy(out, a.suggestions)
	return out
}

// Visible reports whether the suggestion list is rendered.
func (a *Autocomplete) Visible() bool {
	return a.open && len(a.suggestions) > 0
}
