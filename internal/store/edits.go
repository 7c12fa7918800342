package store

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/joshharrison/fasttrack/internal/update"
)

// ExtractEdits decodes an update batch from a JSON payload. selector is a
// gjson path to the edits array inside a larger envelope, such as
// "data.updates"; when empty the payload itself must be the array or an
// object with an "edits" array.
func ExtractEdits(data []byte, selector string) ([]update.Edit, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("edits payload is not valid JSON")
	}

	root := gjson.ParseBytes(data)
	var batch gjson.Result
	switch {
	case selector != "":
		batch = root.Get(selector)
		if !batch.Exists() {
			return nil, fmt.Errorf("selector %q matched nothing", selector)
		}
	case root.IsArray():
		batch = root
	default:
		batch = root.Get("edits")
	}
	if !batch.IsArray() {
		return nil, fmt.Errorf("expected an array of edits, got %s", batch.Type)
	}

	var edits []update.Edit
	if err := json.Unmarshal([]byte(batch.Raw), &edits); err != nil {
		return nil, fmt.Errorf("decode edits: %w", err)
	}
	return edits, nil
}

// LoadEdits reads an update batch from a JSON or YAML file. The selector
// applies to JSON files only.
func LoadEdits(fs afero.Fs, path, selector string) ([]update.Edit, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read edits: %w", err)
	}
	if isJSON(path) {
		return ExtractEdits(data, selector)
	}

	var doc struct {
		Edits []update.Edit `yaml:"edits"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		var list []update.Edit
		if yaml.Unmarshal(data, &list) != nil {
			return nil, fmt.Errorf("parse edits %s: %w", path, err)
		}
		return list, nil
	}
	return doc.Edits, nil
}
