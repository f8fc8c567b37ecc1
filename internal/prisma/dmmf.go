package prisma

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// LoadDMMF reads a DMMF JSON document from a file
func LoadDMMF(path string) (*Datamodel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceRead, err)
	}
	defer func() { _ = f.Close() }()

	return DecodeDMMF(f)
}

// DecodeDMMF decodes a DMMF JSON document. Both the full document
// ({"datamodel": {...}}) and a bare datamodel ({"models": [...]}) are accepted.
func DecodeDMMF(r io.Reader) (*Datamodel, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceParse, err)
	}

	body, ok := raw["datamodel"]
	if !ok {
		if _, bare := raw["models"]; !bare {
			return nil, fmt.Errorf("%w: document has neither datamodel nor models", ErrSourceParse)
		}
		var err error
		if body, err = json.Marshal(raw); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSourceParse, err)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var dm Datamodel
	if err := dec.Decode(&dm); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceParse, err)
	}

	for i := range dm.Models {
		for j := range dm.Models[i].Fields {
			f := &dm.Models[i].Fields[j]
			if f.Default != nil {
				f.HasDefaultValue = true
			}
		}
	}

	return &dm, nil
}
