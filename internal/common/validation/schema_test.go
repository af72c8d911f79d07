package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careerflow/internal/models"
)

func TestValidatePatch(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantFields []string
		validate   func(t *testing.T, patch map[string]interface{})
	}{
		{
			name: "scalar fields",
			body: `{"firstName":"Jane","city":"Austin"}`,
			validate: func(t *testing.T, patch map[string]interface{}) {
				assert.Equal(t, "Jane", patch["firstName"])
				assert.Len(t, patch, 2)
			},
		},
		{
			name: "enumeration and lists",
			body: `{"yearsExperience":"10+","education":"phd","skills":["Go","SQL"]}`,
			validate: func(t *testing.T, patch map[string]interface{}) {
				assert.Equal(t, []interface{}{"Go", "SQL"}, patch["skills"])
			},
		},
		{
			name: "clearing an enumeration",
			body: `{"education":""}`,
			validate: func(t *testing.T, patch map[string]interface{}) {
				assert.Equal(t, "", patch["education"])
			},
		},
		{
			name:       "value outside enumeration",
			body:       `{"education":"bootcamp"}`,
			wantFields: []string{"education"},
		},
		{
			name:       "wrong type",
			body:       `{"phone":5551234}`,
			wantFields: []string{"phone"},
		},
		{
			name:       "file fields are not patchable",
			body:       `{"resume":{"name":"cv.pdf"}}`,
			wantFields: []string{"resume"},
		},
		{
			name:       "unknown field",
			body:       `{"favouriteColour":"blue"}`,
			wantFields: []string{"favouriteColour"},
		},
		{
			name:       "several failures",
			body:       `{"zipCode":12345,"education":"none"}`,
			wantFields: []string{"education", "zipCode"},
		},
		{
			name:       "not an object",
			body:       `["firstName"]`,
			wantFields: []string{"(root)"},
		},
		{
			name:       "malformed json",
			body:       `{"firstName":`,
			wantFields: []string{"(root)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patch, err := ValidatePatch([]byte(tt.body))
			if tt.wantFields != nil {
				var verr *Error
				require.True(t, errors.As(err, &verr), "got %v", err)
				fields := make([]string, len(verr.Errors))
				for i, fe := range verr.Errors {
					fields[i] = fe.Field
				}
				assert.Equal(t, tt.wantFields, fields)
				assert.Nil(t, patch)
				return
			}
			require.NoError(t, err)
			tt.validate(t, patch)
		})
	}
}

func TestStruct(t *testing.T) {
	t.Run("valid contact message", func(t *testing.T) {
		err := Struct(models.ContactMessage{Name: "Jane", Email: "jane@x.com", Message: "Hello"})
		assert.NoError(t, err)
	})

	t.Run("missing and malformed fields", func(t *testing.T) {
		err := Struct(models.ContactMessage{Email: "not-an-email"})
		var verr *Error
		require.True(t, errors.As(err, &verr))

		byField := map[string]string{}
		for _, fe := range verr.Errors {
			byField[fe.Field] = fe.Message
		}
		assert.Equal(t, "is required", byField["name"])
		assert.Equal(t, "must be a valid email address", byField["email"])
		assert.Equal(t, "is required", byField["message"])
		assert.Contains(t, err.Error(), "validation failed:")
	})

	t.Run("subscriber", func(t *testing.T) {
		assert.NoError(t, Struct(models.Subscriber{Email: "a@b.com"}))
		assert.Error(t, Struct(models.Subscriber{}))
	})
}
