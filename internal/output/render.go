package output

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Format selects the rendered representation of the inventory.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Render serializes the inventory. YAML is the reference shape; JSON
// renders the same logical structure with the same key names.
func Render(inv *Inventory, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(inv)
	case FormatJSON:
		data, err := json.MarshalIndent(inv, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
