package config

import (
	"fmt"
	"os"
	"regexp"
	"sort"

	"github.com/dandantas/pimpush/internal/model"
	"gopkg.in/yaml.v3"
)

// envRef matches ${VAR} references; a bare $ is kept literally
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Catalog lists the target environments and the field mapping table
type Catalog struct {
	Environments map[string]model.EnvConfig `yaml:"environments"`
	FieldMap     *model.FieldMap            `yaml:"field_map"`
}

// LoadCatalog reads a catalog file. ${VAR} references are expanded from the
// environment before parsing so credentials can stay out of the file. An
// empty path yields an empty catalog with the default field map.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return ParseCatalog(nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog parses catalog YAML
func ParseCatalog(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(expandEnvRefs(data), &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	if catalog.Environments == nil {
		catalog.Environments = make(map[string]model.EnvConfig)
	}
	for name, env := range catalog.Environments {
		env.Name = name
		env.SetDefaults()
		catalog.Environments[name] = env
	}

	if catalog.FieldMap == nil {
		fm := model.DefaultFieldMap()
		catalog.FieldMap = &fm
	}
	if err := catalog.FieldMap.Validate(); err != nil {
		return nil, fmt.Errorf("invalid field map: %w", err)
	}

	return &catalog, nil
}

// expandEnvRefs replaces ${VAR} with the variable's value, empty when unset
func expandEnvRefs(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(ref []byte) []byte {
		name := envRef.FindSubmatch(ref)[1]
		return []byte(os.Getenv(string(name)))
	})
}

// ResolveEnvironment returns the named environment
func (c *Catalog) ResolveEnvironment(name string) (model.EnvConfig, error) {
	env, ok := c.Environments[name]
	if !ok {
		return model.EnvConfig{}, fmt.Errorf("%w: %q", model.ErrUnknownEnvironment, name)
	}
	return env, nil
}

// EnvironmentNames returns the configured environment names, sorted
func (c *Catalog) EnvironmentNames() []string {
	names := make([]string, 0, len(c.Environments))
	for name := range c.Environments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
