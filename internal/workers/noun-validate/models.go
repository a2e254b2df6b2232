package nounvalidate

// Output is the validator's structured verdict for one word.
type Output struct {
	IsNoun    bool   `json:"isNoun"`
	Reasoning string `json:"reasoning"`
}

const outputSchema = `{
	"type": "object",
	"required": ["isNoun", "reasoning"],
	"properties": {
		"isNoun": {"type": "boolean"},
		"reasoning": {"type": "string"}
	}
}`
