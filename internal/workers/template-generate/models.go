package templategen

// Output is the generator's structured template.
type Output struct {
	Topic        string `json:"topic"`
	TemplateText string `json:"templateText"`
}

const outputSchema = `{
	"type": "object",
	"required": ["topic", "templateText"],
	"properties": {
		"topic": {"type": "string"},
		"templateText": {"type": "string", "minLength": 1}
	}
}`
