package common

const (
	// MaxRequestBody limits JSON request bodies for the proxy and submission endpoints.
	MaxRequestBody = 1 << 20
	// SubmitEmailPath is the fan-out route; every other POST path is proxied.
	SubmitEmailPath = "/submit-email"
)
