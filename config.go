package bambangdb

import (
	"os"

	"gopkg.in/yaml.v2"
)

// LoadConfig reads a Config from a YAML file, the same library and
// yaml-tag convention the teacher's engine.Config uses for its own
// data_directory/listen settings.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
