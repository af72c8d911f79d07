// Package validation checks request bodies before they reach the domain: JSON
// schema for form patches, struct tags for the contact and subscribe bodies.
package validation

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"

	"careerflow/internal/application/form"
)

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error collects every field that failed.
type Error struct {
	Errors []FieldError `json:"errors"`
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

const maxTextLength = 2000

var (
	patchSchemaOnce sync.Once
	patchSchema     *gojsonschema.Schema
	patchSchemaErr  error

	validate = validator.New()
)

// PatchSchema is the JSON schema a PATCH body must satisfy. Document fields are
// absent on purpose: files only change through uploads.
func PatchSchema() map[string]interface{} {
	text := func(max int) map[string]interface{} {
		return map[string]interface{}{"type": "string", "maxLength": max}
	}
	enum := func(opts []string) map[string]interface{} {
		values := make([]interface{}, 0, len(opts)+1)
		values = append(values, "")
		for _, o := range opts {
			values = append(values, o)
		}
		return map[string]interface{}{"type": "string", "enum": values}
	}
	list := map[string]interface{}{
		"type":  "array",
		"items": text(100),
	}

	return map[string]interface{}{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]interface{}{
			form.FieldFirstName:          text(100),
			form.FieldLastName:           text(100),
			form.FieldEmail:              text(254),
			form.FieldPhone:              text(40),
			form.FieldAddress:            text(200),
			form.FieldCity:               text(100),
			form.FieldState:              text(100),
			form.FieldZipCode:            text(20),
			form.FieldCurrentPosition:    text(200),
			form.FieldCurrentCompany:     text(200),
			form.FieldYearsExperience:    enum(form.YearsExperienceOptions),
			form.FieldEducation:          enum(form.EducationOptions),
			form.FieldSkills:             list,
			form.FieldCertifications:     list,
			form.FieldAvailableStartDate: text(40),
			form.FieldSalaryExpectation:  text(100),
			form.FieldAdditionalInfo:     text(maxTextLength),
		},
	}
}

func compiledPatchSchema() (*gojsonschema.Schema, error) {
	patchSchemaOnce.Do(func() {
		patchSchema, patchSchemaErr = gojsonschema.NewSchema(gojsonschema.NewGoLoader(PatchSchema()))
	})
	return patchSchema, patchSchemaErr
}

// ValidatePatch checks raw against PatchSchema and decodes it. The result is
// ready for form.FromPatch.
func ValidatePatch(raw []byte) (map[string]interface{}, error) {
	schema, err := compiledPatchSchema()
	if err != nil {
		return nil, fmt.Errorf("compile patch schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, &Error{Errors: []FieldError{{Field: "(root)", Message: "body is not valid JSON"}}}
	}
	if !result.Valid() {
		verr := &Error{Errors: make([]FieldError, 0, len(result.Errors()))}
		for _, desc := range result.Errors() {
			field := desc.Field()
			if field == "" || field == "(root)" {
				if p, ok := desc.Details()["property"].(string); ok {
					field = p
				} else {
					field = "(root)"
				}
			}
			verr.Errors = append(verr.Errors, FieldError{Field: field, Message: desc.Description()})
		}
		sort.Slice(verr.Errors, func(i, j int) bool { return verr.Errors[i].Field < verr.Errors[j].Field })
		return nil, verr
	}

	var patch map[string]interface{}
	if err := json.Unmarshal(raw, &patch); err != nil {
		return nil, &Error{Errors: []FieldError{{Field: "(root)", Message: err.Error()}}}
	}
	return patch, nil
}

// Struct runs the validate struct tags of v.
func Struct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	out := &Error{Errors: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Errors = append(out.Errors, FieldError{
			Field:   lowerFirst(fe.Field()),
			Message: tagMessage(fe),
		})
	}
	return out
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed %s check", fe.Tag())
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
