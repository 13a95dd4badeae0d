package wikipedia

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Write encodes experts as indented JSON without HTML escaping.
func Write(w io.Writer, experts []Expert) error {
	if experts == nil {
		experts = []Expert{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(experts)
}

func WriteFile(path string, experts []Expert) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, experts); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// ReadFile loads a file produced by WriteFile. An empty file yields no experts.
func ReadFile(path string) ([]Expert, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var experts []Expert
	if err := json.Unmarshal(data, &experts); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return experts, nil
}
