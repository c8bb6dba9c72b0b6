package chat

// Request is the body of POST /api/chat.
type Request struct {
	Message string `json:"message"`
}

// Response is the body the backend answers with.
type Response struct {
	Response string `json:"response"`
}
