package builtins

import "github.com/forgesyte/forgesyte/internal/registry"

// PassthroughPlugin echoes its input metadata back unchanged. It exists to
// exercise the DAG pipeline engine and the MCP/REST surfaces end to end
// without depending on a real analysis backend.
type PassthroughPlugin struct{}

// NewPassthroughPlugin constructs a PassthroughPlugin.
func NewPassthroughPlugin() registry.Handler {
	return &PassthroughPlugin{}
}

func (p *PassthroughPlugin) Metadata() registry.Metadata {
	return registry.Metadata{
		Name:        "passthrough",
		Description: "Echoes the artifact size and supplied options; useful for pipeline wiring and smoke tests.",
		Version:     "1.0.0",
		InputTypes:  []string{"image/jpeg", "image/png", "application/octet-stream"},
		OutputTypes: []string{"json"},
		DefaultTool: "echo",
	}
}

func (p *PassthroughPlugin) RunTool(_ string, arguments map[string]interface{}) (map[string]interface{}, error) {
	bytesVal, _ := arguments["_image_bytes"].([]byte)

	out := map[string]interface{}{"bytes_seen": len(bytesVal)}
	for k, v := range arguments {
		if k == "_image_bytes" {
			continue
		}
		out[k] = v
	}
	return out, nil
}
