package domain

import "fmt"

// MaxMessageTextLength is the maximum number of characters in a MessageText.
const MaxMessageTextLength = 200

// MessageText is the validated text of a greeting.
type MessageText struct {
	value string
}

// NewMessageText validates raw and returns the trimmed message.
func NewMessageText(raw string) (MessageText, error) {
	value, err := validateText("message", raw, MaxMessageTextLength)
	if err != nil {
		return MessageText{}, err
	}
	return MessageText{value: value}, nil
}

// DefaultMessageFor derives the standard greeting for name.
// A valid name is at most 100 characters, so the result always fits in a MessageText.
func DefaultMessageFor(name PersonName) MessageText {
	return MessageText{value: fmt.Sprintf("Hello, %s!", name.Value())}
}

// Value returns the underlying string.
func (m MessageText) Value() string { return m.value }

func (m MessageText) String() string { return m.value }
