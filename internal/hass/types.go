package hass

// Message is a Home Assistant websocket API message.
type Message struct {
	ID      int    `json:"id,omitempty"`
	Type    string `json:"type"`
	Success *bool  `json:"success,omitempty"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	// HAVersion is sent with auth_required and auth_ok.
	HAVersion string `json:"ha_version,omitempty"`
}

// Error is the error object of an unsuccessful result.
type Error struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// State is one entity as returned by get_states.
type State struct {
	EntityID    string         `json:"entity_id"`
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes,omitempty"`
	LastChanged string         `json:"last_changed,omitempty"`
	LastUpdated string         `json:"last_updated,omitempty"`
}

// FriendlyName returns the friendly_name attribute, if it is a string.
func (s State) FriendlyName() string {
	name, _ := s.Attributes["friendly_name"].(string)
	return name
}
