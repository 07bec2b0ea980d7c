package logger

import "errors"

// Init rejects a Log config without the names every log line carries.
var (
	ErrAppNameIsEmpty     = errors.New("logger: Log.AppName is required")
	ErrServiceNameIsEmpty = errors.New("logger: Log.ServiceName is required")
)
