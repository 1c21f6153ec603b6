package httperr

// Response is the error envelope rendered by the error-handling
// middleware, either from a public gin error's Meta or from a
// recovered panic.
type Response struct {
	Status int `json:"-"`
	Error  struct {
		Message string `json:"message"`
	} `json:"error"`
	Detail any `json:"detail,omitempty"`
}
