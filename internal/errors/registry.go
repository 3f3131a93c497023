package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Suggestion string
	DocURL     string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Route Errors (W101-W199)
	// ============================================

	"W101": {
		Category:   CategoryRoute,
		Message:    "Duplicate route path",
		Suggestion: "Give each route a unique absolute path (parent path + child path)",
		DocURL:     "https://vango.dev/docs/waypoint/errors/W101",
	},
	"W102": {
		Category:   CategoryRoute,
		Message:    "Duplicate route name",
		Suggestion: "Route names are global; rename one of the routes",
		DocURL:     "https://vango.dev/docs/waypoint/errors/W102",
	},
	"W103": {
		Category:   CategoryRoute,
		Message:    "Invalid route definition",
		Suggestion: "Root routes need a non-empty path such as \"/\"",
		DocURL:     "https://vango.dev/docs/waypoint/errors/W103",
	},
	"W104": {
		Category: CategoryRoute,
		Message:  "No route matches path",
		DocURL:   "https://vango.dev/docs/waypoint/errors/W104",
	},
	"W105": {
		Category: CategoryRoute,
		Message:  "Unknown parent route",
		DocURL:   "https://vango.dev/docs/waypoint/errors/W105",
	},

	// ============================================
	// Navigation Errors (W201-W299)
	// ============================================

	"W201": {
		Category: CategoryNavigation,
		Message:  "Navigation rejected by guard",
		DocURL:   "https://vango.dev/docs/waypoint/errors/W201",
	},
	"W202": {
		Category: CategoryNavigation,
		Message:  "Navigation aborted",
		DocURL:   "https://vango.dev/docs/waypoint/errors/W202",
	},
	"W203": {
		Category: CategoryNavigation,
		Message:  "Navigation cancelled",
		DocURL:   "https://vango.dev/docs/waypoint/errors/W203",
	},
	"W204": {
		Category:   CategoryNavigation,
		Message:    "Too many redirects",
		Suggestion: "Check for guards or routes that redirect to each other",
		DocURL:     "https://vango.dev/docs/waypoint/errors/W204",
	},
	"W205": {
		Category: CategoryNavigation,
		Message:  "Unknown route name",
		DocURL:   "https://vango.dev/docs/waypoint/errors/W205",
	},
	"W210": {
		Category: CategoryHistory,
		Message:  "History state write failed",
		DocURL:   "https://vango.dev/docs/waypoint/errors/W210",
	},
	"W211": {
		Category: CategoryHistory,
		Message:  "History state is not valid JSON",
		DocURL:   "https://vango.dev/docs/waypoint/errors/W211",
	},

	// ============================================
	// Route Table Errors (W301-W399)
	// ============================================

	"W301": {
		Category:   CategoryTable,
		Message:    "Invalid route table",
		Suggestion: "Every route entry needs a path",
		DocURL:     "https://vango.dev/docs/waypoint/errors/W301",
	},
	"W302": {
		Category:   CategoryTable,
		Message:    "Failed to parse route table",
		Suggestion: "Check that the file is valid YAML with a top-level \"routes\" list",
		DocURL:     "https://vango.dev/docs/waypoint/errors/W302",
	},
	"W303": {
		Category: CategoryTable,
		Message:  "Failed to fetch route table",
		DocURL:   "https://vango.dev/docs/waypoint/errors/W303",
	},

	// ============================================
	// Config / CLI Errors (W401-W499)
	// ============================================

	"W401": {
		Category: CategoryConfig,
		Message:  "Failed to load configuration",
		DocURL:   "https://vango.dev/docs/waypoint/errors/W401",
	},
	"W402": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
		DocURL:   "https://vango.dev/docs/waypoint/errors/W402",
	},
	"W410": {
		Category:   CategoryCLI,
		Message:    "Invalid simulation step",
		Suggestion: "Use push:/path, replace:/path, back or forward",
		DocURL:     "https://vango.dev/docs/waypoint/errors/W410",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
