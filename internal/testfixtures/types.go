// Package testfixtures provides Home Assistant websocket fixtures for tests:
// wire message types, canned entity states and scripted test servers.
package testfixtures

// HAMessage is a Home Assistant websocket message as the server sends it.
type HAMessage struct {
	ID      int      `json:"id,omitempty"`
	Type    string   `json:"type"`
	Success *bool    `json:"success,omitempty"`
	Result  any      `json:"result,omitempty"`
	Error   *HAError `json:"error,omitempty"`
	Message string   `json:"message,omitempty"`
}

// HAError is the error object of an unsuccessful result.
type HAError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// HAState is one element of a get_states result.
type HAState struct {
	EntityID    string         `json:"entity_id"`
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes,omitempty"`
	LastChanged string         `json:"last_changed,omitempty"`
	LastUpdated string         `json:"last_updated,omitempty"`
}
