package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrInvalidCookieKey error if the cookie encryption key is not a base64 AES key.
	ErrInvalidCookieKey = errors.New("toml config webserver.cookieencryptionkey must be base64 of 16, 24 or 32 bytes")

	// ErrUnknownStorage error if the session storage is not supported.
	ErrUnknownStorage = errors.New("toml config webserver.session.storage must be memory, mysql or postgres")

	// ErrUnknownEngine error if the database engine is not supported.
	ErrUnknownEngine = errors.New("toml config db.gormengine must be mysql, postgres or sqlite")

	// ErrGoogleIncomplete error if google sign-in is enabled without client settings.
	ErrGoogleIncomplete = errors.New("toml config auth.google needs clientid, clientsecret and redirecturl when enabled")
)
