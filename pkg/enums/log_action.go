package enums

import "fmt"

// LogAction identifies the borrowing lifecycle event an audit entry records.
type LogAction string

const (
	LogActionCheckout LogAction = "checkout"
	LogActionCheckin  LogAction = "checkin"
	LogActionTransfer LogAction = "transfer"
)

var validLogActions = []LogAction{
	LogActionCheckout,
	LogActionCheckin,
	LogActionTransfer,
}

// String implements fmt.Stringer.
func (a LogAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known LogAction.
func (a LogAction) IsValid() bool {
	for _, candidate := range validLogActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseLogAction converts raw input into a LogAction.
func ParseLogAction(value string) (LogAction, error) {
	for _, candidate := range validLogActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid log action %q", value)
}
