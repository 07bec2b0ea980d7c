package config

// Database engines.
const (
	EngineMySQL    = "mysql"
	EnginePostgres = "postgres"
	EngineSQLite   = "sqlite"
)

// DB holds the database configuration settings.
type DB struct {
	GormEngine string // mysql, postgres or sqlite
	Extras     string // extra dsn parameters
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	Path       string // sqlite database file
}
