package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/v2"
)

// parsers maps config file extensions to the koanf parser that decodes them.
var parsers = map[string]koanf.Parser{
	".yaml": yaml.Parser(),
	".yml":  yaml.Parser(),
	".json": jsonParser{},
}

// parserFor picks a parser by file extension.
// Supported extensions: .yaml, .yml, .json
func parserFor(path string) (koanf.Parser, error) {
	ext := strings.ToLower(filepath.Ext(path))
	p, ok := parsers[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported config file extension: %q", ext)
	}
	return p, nil
}

// jsonParser implements koanf.Parser for JSON config files.
type jsonParser struct{}

func (jsonParser) Unmarshal(data []byte) (map[string]interface{}, error) {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return m, nil
}

func (jsonParser) Marshal(m map[string]interface{}) ([]byte, error) {
	return json.Marshal(m)
}
