package client

// statusSuccess is the value older services put in the status field instead of success=true.
const statusSuccess = "success"

// result is the common envelope of every JSON response.
type result struct {
	Success *bool  `json:"success,omitempty"`
	Status  string `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// confirmed reports whether the server acknowledged the action.
func (r result) confirmed() bool {
	if r.Success != nil {
		return *r.Success
	}

	return r.Status == statusSuccess
}

// reason returns the server text explaining a failure.
func (r result) reason() string {
	if r.Error != "" {
		return r.Error
	}

	return r.Message
}

// check converts a failure payload into a RejectedError.
func (r result) check(endpoint string) error {
	if r.confirmed() {
		return nil
	}

	message := r.reason()
	if message == "" {
		message = errUnconfirmed.Error()
	}

	return &RejectedError{Endpoint: endpoint, Message: message}
}

type sessionResponse struct {
	result

	SessionID string `json:"session_id"`
}

type listResponse struct {
	result

	Images []string `json:"images"`
	Order  []string `json:"order"`
}

// UploadResult is the decoded response of a successful upload.
type UploadResult struct {
	// Filenames holds the server-assigned names, in server order.
	Filenames []string `json:"filenames"`
}

type uploadResponse struct {
	result
	UploadResult
}

// GenerateResult is the decoded response of a successful generation.
type GenerateResult struct {
	// GIFURL is the server path of the generated animation.
	GIFURL string `json:"gif_url"`
}

type generateResponse struct {
	result
	GenerateResult
}
