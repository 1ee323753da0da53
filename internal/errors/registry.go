package errors

import (
	"sync"
)

// ErrorDefinition holds the definition of a registered error.
type ErrorDefinition struct {
	Code    string
	Type    ErrorType
	Message string
}

// Registry holds registered error definitions for consistent error creation.
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]ErrorDefinition
}

// NewRegistry creates a new error registry.
func NewRegistry() *Registry {
	return &Registry{
		definitions: make(map[string]ErrorDefinition),
	}
}

// Register adds an error definition, replacing any with the same code.
func (r *Registry) Register(def ErrorDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.definitions[def.Code] = def
}

// Create creates a new Error from a registered definition.
// Returns nil if the code is not registered.
func (r *Registry) Create(code string) *Error {
	r.mu.RLock()
	def, ok := r.definitions[code]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	return &Error{
		Type:    def.Type,
		Code:    def.Code,
		Message: def.Message,
		Details: make(map[string]any),
	}
}

// DefaultRegistry is the global error registry.
var DefaultRegistry = NewRegistry()

// Create creates a new Error from the default registry.
func Create(code string) *Error {
	return DefaultRegistry.Create(code)
}

// Error codes produced by the language server.
const (
	CodeMissingToken     = "missing_token"
	CodeInvalidURL       = "invalid_url"
	CodeInvalidSetting   = "invalid_setting"
	CodeEmptyPropertySet = "empty_property_set"

	CodeConnectFailed    = "connect_failed"
	CodeConnectionClosed = "connection_closed"
	CodeMessageSend      = "message_send_failed"
	CodeAuthFailed       = "auth_failed"
	CodeHAResult         = "ha_result"

	CodeDocumentParse = "document_parse"
	CodeDocumentLimit = "document_limit"
)

func init() {
	for _, def := range []ErrorDefinition{
		{Code: CodeMissingToken, Type: ErrorTypeConfig, Message: "no Home Assistant access token configured"},
		{Code: CodeInvalidURL, Type: ErrorTypeConfig, Message: "invalid Home Assistant URL"},
		{Code: CodeInvalidSetting, Type: ErrorTypeConfig, Message: "invalid setting"},
		{Code: CodeEmptyPropertySet, Type: ErrorTypeValidation, Message: "entity property set must not be empty"},
		{Code: CodeConnectFailed, Type: ErrorTypeConnection, Message: "failed to connect to Home Assistant"},
		{Code: CodeConnectionClosed, Type: ErrorTypeConnection, Message: "connection closed"},
		{Code: CodeMessageSend, Type: ErrorTypeConnection, Message: "failed to send message"},
		{Code: CodeAuthFailed, Type: ErrorTypeAuth, Message: "authentication failed"},
		{Code: CodeHAResult, Type: ErrorTypeProtocol, Message: "Home Assistant returned an error"},
		{Code: CodeDocumentParse, Type: ErrorTypeDocument, Message: "document could not be parsed"},
		{Code: CodeDocumentLimit, Type: ErrorTypeDocument, Message: "too many open documents"},
	} {
		DefaultRegistry.Register(def)
	}
}

// ErrMissingToken reports that no access token was configured.
func ErrMissingToken() *Error {
	return Create(CodeMissingToken)
}

// ErrInvalidURL reports a Home Assistant URL that cannot be used.
func ErrInvalidURL(rawURL string, cause error) *Error {
	return Create(CodeInvalidURL).WithPath(rawURL).WithCause(cause)
}

// ErrInvalidSetting reports a setting with an unusable value.
func ErrInvalidSetting(name, reason string) *Error {
	return Create(CodeInvalidSetting).WithPath(name).WithMessagef("%s", reason)
}

// ErrEmptyPropertySet reports an empty entity property set.
func ErrEmptyPropertySet() *Error {
	return Create(CodeEmptyPropertySet)
}

// ErrConnect wraps a dial failure.
func ErrConnect(url string, cause error) *Error {
	return Create(CodeConnectFailed).WithPath(url).WithCause(cause)
}

// ErrConnectionClosed reports that the websocket went away mid-request.
func ErrConnectionClosed(cause error) *Error {
	return Create(CodeConnectionClosed).WithCause(cause)
}

// ErrMessageSend wraps a failure to write a request.
func ErrMessageSend(cause error) *Error {
	return Create(CodeMessageSend).WithCause(cause)
}

// ErrAuthFailed reports a rejected or broken auth handshake.
func ErrAuthFailed(message string) *Error {
	if message == "" {
		return Create(CodeAuthFailed)
	}
	return Create(CodeAuthFailed).WithMessagef("authentication failed: %s", message)
}

// ErrHAResult reports an unsuccessful result; haCode is Home Assistant's own error code.
func ErrHAResult(haCode, message string) *Error {
	e := Create(CodeHAResult).WithDetails(map[string]any{"ha_code": haCode})
	if message != "" {
		e.Message = message
	}
	return e
}

// ErrDocumentParse wraps a YAML parse failure for uri.
func ErrDocumentParse(uri string, cause error) *Error {
	return Create(CodeDocumentParse).WithPath(uri).WithCause(cause)
}

// ErrDocumentLimit reports that the open-document store is full.
func ErrDocumentLimit(limit int) *Error {
	return Create(CodeDocumentLimit).WithMessagef("document cache limit reached (%d documents open)", limit)
}
