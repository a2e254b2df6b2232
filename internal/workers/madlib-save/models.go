package madlibsave

// saveResponse is the sink's reply to a save request.
type saveResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}
