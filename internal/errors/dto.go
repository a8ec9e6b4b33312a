package errors

// ErrorResponse represents the standard error response structure returned
// to API clients. FieldErrors is populated only for kind=validation.
type ErrorResponse struct {
	Success     bool           `json:"success"`
	Error       ErrorDetail    `json:"error"`
	FieldErrors map[string]any `json:"field_errors,omitempty"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code          string         `json:"code"`
	Display       string         `json:"message"`
	InternalError string         `json:"internal_error,omitempty"`
	Details       map[string]any `json:"details,omitempty"`
}

// NewErrorResponse builds a client-facing ErrorResponse from a built
// error, pulling field_errors out of details when present.
func NewErrorResponse(err error) ErrorResponse {
	kind := KindOf(err)
	resp := ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Code:          Code(kind),
			Display:       err.Error(),
			InternalError: err.Error(),
		},
	}
	var carrier *fieldErrorsCarrier
	if As(err, &carrier) {
		resp.Error.Details = carrier.fields
		if fe, ok := carrier.fields["field_errors"].(map[string]any); ok {
			resp.FieldErrors = fe
		}
	}
	return resp
}
