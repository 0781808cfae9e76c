package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// ValidateOneOf checks if a value is in a list of allowed values
func ValidateOneOf(field, value string, allowed []string) error {
	for _, allowedValue := range allowed {
		if value == allowedValue {
			return nil
		}
	}
	return ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// ValidateGateway checks the gateway section. The worker command itself is
// checked when it is resolved, since flags may supply it after loading.
func ValidateGateway(g GatewayConfig) error {
	var errs ValidationErrors

	validatePort(&errs, "gateway.port", g.Port)
	validatePath(&errs, "gateway.streamableHttpPath", g.StreamableHTTPPath)

	seen := make(map[string]bool, len(g.HealthEndpoints))
	for i, ep := range g.HealthEndpoints {
		field := fmt.Sprintf("gateway.healthEndpoints[%d]", i)
		validatePath(&errs, field, ep)
		if ep == g.StreamableHTTPPath {
			errs.Add(field, "must differ from the streamable HTTP path", ep)
		}
		if seen[ep] {
			errs.Add(field, "is listed more than once", ep)
		}
		seen[ep] = true
	}

	for name := range g.Headers {
		if !validHeaderName(name) {
			errs.Add("gateway.headers", fmt.Sprintf("invalid header name %q", name), name)
		}
	}

	if g.WorkerTimeout < 0 {
		errs.Add("gateway.workerTimeout", "must not be negative", g.WorkerTimeout)
	}
	if g.MaxLineBytes <= 0 {
		errs.Add("gateway.maxLineBytes", "must be positive", g.MaxLineBytes)
	}
	if g.MaxBodyBytes <= 0 {
		errs.Add("gateway.maxBodyBytes", "must be positive", g.MaxBodyBytes)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// ValidateServer checks the server section.
func ValidateServer(s ServerConfig) error {
	var errs ValidationErrors

	if err := ValidateOneOf("server.transport", s.Transport, []string{TransportStdio, TransportStreamableHTTP}); err != nil {
		errs = append(errs, err.(ValidationError))
	}
	if strings.TrimSpace(s.Domain) == "" {
		errs.Add("server.domain", "is required (BACKLOG_DOMAIN)")
	}
	if s.APIKey == "" && s.AccessToken == "" {
		errs.Add("server.apiKey", "an API key (BACKLOG_API_KEY) or access token (BACKLOG_ACCESS_TOKEN) is required")
	}
	if s.Transport == TransportStreamableHTTP {
		validatePort(&errs, "server.port", s.Port)
		validatePath(&errs, "server.path", s.Path)
	}
	if s.MaxTokens <= 0 {
		errs.Add("server.maxTokens", "must be positive", s.MaxTokens)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func validatePort(errs *ValidationErrors, field string, port int) {
	if port < 0 || port > 65535 {
		errs.Add(field, "must be between 0 and 65535", port)
	}
}

func validatePath(errs *ValidationErrors, field, path string) {
	if !strings.HasPrefix(path, "/") {
		errs.Add(field, "must start with '/'", path)
	}
	if strings.ContainsFunc(path, func(r rune) bool {
		return r <= ' ' || r == 0x7f || strings.ContainsRune("{}?#", r)
	}) {
		errs.Add(field, "must not contain whitespace, control characters, braces, '?' or '#'", path)
	}
}

func validHeaderName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if r <= ' ' || r >= 0x7f || strings.ContainsRune("()<>@,;:\\\"/[]?={}", r) {
			return false
		}
	}
	return true
}
