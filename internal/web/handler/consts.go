package handler

const (
	// BaseLayout is the default path for layout templates.
	BaseLayout = "layouts/base"

	// RootPath is the root path the route group.
	RootPath = "/"

	// RouterRootPath is the path of a group's own route inside app.Route.
	RouterRootPath = ""

	// ErrNilACDFatalLogMsg is used if app or deps are nil.
	ErrNilACDFatalLogMsg = "app or handler dependencies are nil"
)

// Shared page paths.
const (
	LoginPath    = "/login"
	RegisterPath = "/register"
	ProfilePath  = "/profile"
	PlantsPath   = "/plants"
)
