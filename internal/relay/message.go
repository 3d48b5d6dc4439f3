package relay

import "errors"

// TypeUpdateSettings is the only message type.
const TypeUpdateSettings = "UPDATE_SETTINGS"

// ErrUnknownType is reported for messages of any other type.
var ErrUnknownType = errors.New("unknown message type")

// Message is a settings notification. Enabled and ExtraKeywords are optional;
// when both are nil the receiver re-reads its settings store.
type Message struct {
	Type          string  `json:"type"`
	Enabled       *bool   `json:"enabled,omitempty"`
	ExtraKeywords *string `json:"extraKeywords,omitempty"`
}

// UpdateSettings returns a notification without inline values.
func UpdateSettings() Message {
	return Message{Type: TypeUpdateSettings}
}

// UpdateSettingsWith returns a notification carrying the new values.
func UpdateSettingsWith(enabled bool, extraKeywords string) Message {
	return Message{Type: TypeUpdateSettings, Enabled: &enabled, ExtraKeywords: &extraKeywords}
}

// HasValues reports whether the message carries inline settings.
func (m Message) HasValues() bool {
	return m.Enabled != nil || m.ExtraKeywords != nil
}

// Response acknowledges a message. Every delivered message gets one.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// OK is the successful response.
func OK() Response {
	return Response{Success: true}
}

// Fail builds a failed response from err.
func Fail(err error) Response {
	return Response{Success: false, Error: err.Error()}
}
