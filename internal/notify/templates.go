package notify

import (
	"fmt"
	"strings"

	"careerflow/internal/models"
)

var defaultTemplates = map[string]models.NotificationTemplate{
	models.TypeApplicationReceived: {
		Type:    models.TypeApplicationReceived,
		Subject: "We received your application{{forJob}}",
		Body: "Hi {{firstName}},\n\nThank you for applying{{forJob}}. " +
			"Your reference is {{submissionId}}. Our recruiting team will be in touch.\n\nCareerFlow",
	},
	models.TypeNewApplicationAlert: {
		Type: models.TypeNewApplicationAlert,
		Body: "New application from {{applicantName}}{{forJob}}. Ref {{submissionId}}.",
	},
	models.TypeContactAcknowledged: {
		Type:    models.TypeContactAcknowledged,
		Subject: "Thanks for reaching out",
		Body:    "Hi {{name}},\n\nWe received your message and will reply shortly.\n\nCareerFlow",
	},
}

// renderTemplate substitutes {{key}} placeholders. Placeholders without a value
// are removed.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl
	for k, v := range data {
		value := ""
		switch x := v.(type) {
		case string:
			value = x
		case nil:
		default:
			value = fmt.Sprintf("%v", x)
		}
		result = strings.ReplaceAll(result, "{{"+k+"}}", value)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		result = result[:start] + result[start+end+2:]
	}
	return result
}
