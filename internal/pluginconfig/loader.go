// Package pluginconfig loads per-plugin configuration descriptors from a
// directory of YAML files, one per plugin, named after the plugin (e.g.
// ocr.yaml). A plugin with no file present runs with an empty config.
package pluginconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadDir reads every *.yaml/*.yml file in dir and returns a mapping from
// plugin name (the file's base name) to its decoded config. A missing dir
// is not an error — it simply yields no configs.
func LoadDir(dir string) (map[string]map[string]interface{}, []error) {
	configs := make(map[string]map[string]interface{})

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return configs, nil
		}
		return configs, []error{fmt.Errorf("reading plugin config directory %q: %w", dir, err)}
	}

	var errs []error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ext)
		path := filepath.Join(dir, entry.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("reading %q: %w", path, err))
			continue
		}

		var cfg map[string]interface{}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			errs = append(errs, fmt.Errorf("parsing %q: %w", path, err))
			continue
		}

		configs[name] = cfg
	}

	return configs, errs
}
