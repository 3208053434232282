package session

import "errors"

// ErrNoDirectories is returned when an operation needs a registered
// directory and there is none.
var ErrNoDirectories = errors.New("no directories registered")

// RegistrationError is a failed directory registration. It is reported
// separately from PickerError so the two can be shown differently.
type RegistrationError struct {
	Err error
}

func (e *RegistrationError) Error() string {
	return "failed to register directory, make sure the path is absolute and exists: " + e.Err.Error()
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// PickerError is a failure of the service host's native folder picker.
type PickerError struct {
	Err error
}

func (e *PickerError) Error() string {
	return "failed to run native directory picker, enter the path manually: " + e.Err.Error()
}

func (e *PickerError) Unwrap() error {
	return e.Err
}
