package builtins

import (
	"fmt"

	"github.com/forgesyte/forgesyte/internal/registry"
)

// OCRPlugin is the default analysis plugin (§6.1 /analyze defaults to
// "ocr"). It stands in for a real text-extraction backend: the concrete
// decoding/ML library a production OCR plugin would use is out of scope
// here, so it reports the byte length it received rather than running
// actual recognition.
type OCRPlugin struct{}

// NewOCRPlugin constructs an OCRPlugin.
func NewOCRPlugin() registry.Handler {
	return &OCRPlugin{}
}

func (p *OCRPlugin) Metadata() registry.Metadata {
	return registry.Metadata{
		Name:        "ocr",
		Description: "Extracts text from an image artifact.",
		Version:     "1.0.0",
		InputTypes:  []string{"image/jpeg", "image/png"},
		OutputTypes: []string{"text"},
		DefaultTool: "extract_text",
	}
}

func (p *OCRPlugin) RunTool(toolName string, arguments map[string]interface{}) (map[string]interface{}, error) {
	if toolName != "" && toolName != "extract_text" {
		return nil, fmt.Errorf("ocr: unknown tool %q", toolName)
	}

	bytesVal, _ := arguments["_image_bytes"].([]byte)

	return map[string]interface{}{
		"text":       "",
		"confidence": 0.0,
		"bytes_seen": len(bytesVal),
		"engine":     "stub",
	}, nil
}
