package testfixtures

// Token is the access token the auth fixtures accept.
const Token = "test-token"

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}

// NewSuccessMessage creates a successful result message.
func NewSuccessMessage(id int, result any) HAMessage {
	return HAMessage{
		ID:      id,
		Type:    "result",
		Success: BoolPtr(true),
		Result:  result,
	}
}

// NewErrorMessage creates an unsuccessful result message.
func NewErrorMessage(id int, code, message string) HAMessage {
	return HAMessage{
		ID:      id,
		Type:    "result",
		Success: BoolPtr(false),
		Error: &HAError{
			Code:    code,
			Message: message,
		},
	}
}

// NewAuthRequiredMessage creates an auth_required message.
func NewAuthRequiredMessage() HAMessage {
	return HAMessage{Type: "auth_required"}
}

// NewAuthOKMessage creates an auth_ok message.
func NewAuthOKMessage() HAMessage {
	return HAMessage{Type: "auth_ok"}
}

// NewAuthInvalidMessage creates an auth_invalid message.
func NewAuthInvalidMessage(message string) HAMessage {
	return HAMessage{Type: "auth_invalid", Message: message}
}

// NewHAState creates a state without attributes.
func NewHAState(entityID, state string) HAState {
	return HAState{EntityID: entityID, State: state}
}

// NewHAStateWithAttrs creates a state with attributes.
func NewHAStateWithAttrs(entityID, state string, attrs map[string]any) HAState {
	return HAState{EntityID: entityID, State: state, Attributes: attrs}
}

// HomeStates is a small get_states result in Home Assistant's order.
func HomeStates() []HAState {
	return []HAState{
		NewHAStateWithAttrs("light.kitchen", "on", map[string]any{
			"friendly_name": "Kitchen",
			"brightness":    180,
		}),
		NewHAStateWithAttrs("light.living_room", "off", map[string]any{
			"friendly_name": "Living Room",
		}),
		NewHAState("zone.home", "0"),
	}
}
