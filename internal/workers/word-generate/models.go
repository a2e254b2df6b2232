package wordgen

// Output is the generator's word batch.
type Output struct {
	Words []string `json:"words"`
}

const outputSchema = `{
	"type": "object",
	"required": ["words"],
	"properties": {
		"words": {
			"type": "array",
			"items": {"type": "string", "minLength": 1}
		}
	}
}`
