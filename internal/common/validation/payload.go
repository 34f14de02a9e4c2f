// internal/common/validation/payload.go
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	apperrors "form-pipeline/internal/common/errors"
	"form-pipeline/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

// payloadSchema only checks document shape. Field rules are the Schema's job,
// so every string may still be empty here.
const payloadSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "name":            {"type": "string"},
    "age":             {"type": ["number", "string", "null"]},
    "email":           {"type": "string"},
    "password":        {"type": "string"},
    "confirmPassword": {"type": "string"},
    "gender":          {"type": "string"},
    "acceptTerms":     {"type": "boolean"},
    "country":         {"type": "string"},
    "image":           {"type": ["string", "null"]}
  }
}`

var (
	compiledPayloadSchema *gojsonschema.Schema
	compilePayloadOnce    sync.Once
	compilePayloadErr     error
)

// Payload is a submission document read from disk. Image is a file path.
type Payload struct {
	Name            string      `json:"name"`
	Age             json.Number `json:"age"`
	Email           string      `json:"email"`
	Password        string      `json:"password"`
	ConfirmPassword string      `json:"confirmPassword"`
	Gender          string      `json:"gender"`
	AcceptTerms     bool        `json:"acceptTerms"`
	Country         string      `json:"country"`
	Image           string      `json:"image"`
}

// RawInput converts the document to a raw bundle without an image; the
// caller resolves Image into an Upload.
func (p Payload) RawInput() models.RawInput {
	return models.RawInput{
		Name:            p.Name,
		Age:             p.Age.String(),
		Email:           p.Email,
		Password:        p.Password,
		ConfirmPassword: p.ConfirmPassword,
		Gender:          p.Gender,
		AcceptTerms:     p.AcceptTerms,
		Country:         p.Country,
	}
}

func payloadSchemaCompiled() (*gojsonschema.Schema, error) {
	compilePayloadOnce.Do(func() {
		compiledPayloadSchema, compilePayloadErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(payloadSchema))
	})
	return compiledPayloadSchema, compilePayloadErr
}

// ValidatePayload checks a document's structure and reports every
// violation in one INVALID_PAYLOAD error.
func ValidatePayload(doc []byte) error {
	schema, err := payloadSchemaCompiled()
	if err != nil {
		return fmt.Errorf("compile payload schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return apperrors.NewInvalidPayloadError(err.Error())
	}
	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return apperrors.NewInvalidPayloadError(strings.Join(violations, "; "))
}

// DecodePayload validates and decodes a document. A JSON null or missing age
// decodes to the empty string so the Schema reports it as required.
func DecodePayload(doc []byte) (*Payload, error) {
	if err := ValidatePayload(doc); err != nil {
		return nil, err
	}

	var raw struct {
		Payload
		Age   interface{} `json:"age"`
		Image *string     `json:"image"`
	}
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, apperrors.NewInvalidPayloadError(err.Error())
	}

	p := raw.Payload
	switch age := raw.Age.(type) {
	case json.Number:
		p.Age = age
	case string:
		p.Age = json.Number(age)
	case float64:
		p.Age = json.Number(strconv.FormatFloat(age, 'f', -1, 64))
	default:
		p.Age = ""
	}
	if raw.Image != nil {
		p.Image = *raw.Image
	}
	return &p, nil
}
