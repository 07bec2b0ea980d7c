package config

import (
	"time"

	"github.com/GreenNest/GreenNest/internal/logger"
)

// Session storage backends.
const (
	StorageMemory   = "memory"
	StorageMySQL    = "mysql"
	StoragePostgres = "postgres"
)

// Session settings.
type Session struct {
	ExpiryTime     time.Duration // idle lifetime of the session cookie and the signed-in state
	ResolveTimeout time.Duration // how long a guarded request waits for the visitor's identity
	Storage        string        // memory, mysql or postgres
	CookieSecure   bool          // mark the session cookie secure (https only)
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	Title     string
	DB        DB
	Log       logger.Log
	Webserver Webserver
	Auth      Auth
	Visitors  Visitors
}

// Webserver implement webserver settings.
type Webserver struct {
	CacheEnabled        bool    // true = send a one day max-age for static files
	DisableRecover      bool    // disable recover middleware
	Port                int     // listening port for the webserver
	ShutDownTime        int     // wait time for shutdown in seconds
	URL                 string  // public base url, used for reset links and the google redirect
	CookieEncryptionKey string  // base64 encoded AES key for cookie encryption, empty disables it
	Session             Session // session settings
}

// Auth holds the identity backend settings.
type Auth struct {
	Google Google
	Reset  Reset
}

// Google federated sign-in settings.
type Google struct {
	Enabled      bool
	ClientID     string
	ClientSecret string
	RedirectURL  string
	ProviderURL  string // issuer, defaults to https://accounts.google.com
}

// Reset controls password reset links.
type Reset struct {
	TokenTTL time.Duration
}

// Visitors bounds the per visitor identity cache.
type Visitors struct {
	CacheSize int
}
