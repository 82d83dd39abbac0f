package registry

// Handler is the contract a plugin's runtime object must satisfy. The
// registry stores handler values directly rather than factory functions:
// a plugin is loaded once and lives for the process lifetime.
type Handler interface {
	// RunTool invokes the named tool with the given arguments and returns
	// a result mapping or an error. toolName may be empty, in which case
	// the plugin's declared default tool is used.
	RunTool(toolName string, arguments map[string]interface{}) (map[string]interface{}, error)

	// Metadata returns the plugin's static description, used to populate
	// the manifest and the MCP tool catalog.
	Metadata() Metadata
}

// Metadata is a plugin's declared, static information.
type Metadata struct {
	Name                string
	Description         string
	Version             string
	InputTypes          []string
	OutputTypes         []string
	RequiredPermissions []string
	DefaultTool         string
	ConfigSchema        map[string]interface{}
}
