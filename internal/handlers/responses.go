package handlers

// ErrorResponse is the standard error payload
type ErrorResponse struct {
	Error string `json:"error"`
}

// SaveResponse reports the id assigned by a progress save
type SaveResponse struct {
	ID string `json:"id"`
}

// SuggestionResponse carries one generated suggestion
type SuggestionResponse struct {
	Text string `json:"text"`
}
