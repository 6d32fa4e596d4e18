package keyboard

import (
	"errors"
	"strconv"
	"strings"
)

const (
	ActionTest   = "test"   // value: question count
	ActionExport = "export" // value: test id

	separator = ":"

	// Telegram rejects longer callback_data
	maxCallbackBytes = 64
)

var ErrInvalidCallback = errors.New("invalid callback data")

type CallbackData struct {
	Action string
	Value  string
}

// ParseCallback splits "<action>:<value>" on the first separator.
func ParseCallback(data string) (CallbackData, error) {
	action, value, ok := strings.Cut(data, separator)
	if !ok || action == "" || value == "" {
		return CallbackData{}, ErrInvalidCallback
	}
	return CallbackData{Action: action, Value: value}, nil
}

func EncodeCallback(action, value string) string {
	data := action + separator + value
	if len(data) > maxCallbackBytes {
		data = data[:maxCallbackBytes]
	}
	return data
}

func TestCallback(questions int) string {
	return EncodeCallback(ActionTest, strconv.Itoa(questions))
}

func ExportCallback(testID string) string {
	return EncodeCallback(ActionExport, testID)
}
