package contentcheck

// Output is the content checker's structured verdict.
type Output struct {
	IsFamilyFriendly bool   `json:"isFamilyFriendly"`
	Reasoning        string `json:"reasoning"`
}

const outputSchema = `{
	"type": "object",
	"required": ["isFamilyFriendly", "reasoning"],
	"properties": {
		"isFamilyFriendly": {"type": "boolean"},
		"reasoning": {"type": "string"}
	}
}`
