// Package observation loads experimental observations from JSON documents.
package observation

import (
	"context"
	"fmt"
	"os"

	"github.com/tidwall/gjson"

	"ephysval/domain/core"
	domainobs "ephysval/domain/observation"
)

// JSONReader reads observation files. Absent keys stay nil in the result so
// that validation can report them; keys of the wrong type are rejected here.
type JSONReader struct{}

// NewJSONReader creates a new reader
func NewJSONReader() *JSONReader {
	return &JSONReader{}
}

// ReadObservation loads and parses the file at path.
func (r *JSONReader) ReadObservation(ctx context.Context, path string) (*domainobs.Raw, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read observation %s: %w", path, err)
	}
	raw, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return raw, nil
}

// Parse decodes one observation document.
func Parse(data []byte) (*domainobs.Raw, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed JSON", core.ErrObservation)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: observation must be a JSON object", core.ErrObservation)
	}

	raw := &domainobs.Raw{
		Source:      doc.Get("source").String(),
		Description: doc.Get("description").String(),
	}

	var err error
	if raw.Mean, err = optionalNumber(doc, "mean"); err != nil {
		return nil, err
	}
	if raw.SD, err = optionalNumber(doc, "SD"); err != nil {
		return nil, err
	}
	if raw.Units, err = optionalString(doc, "units"); err != nil {
		return nil, err
	}
	if raw.SampleSize, err = optionalInt(doc, "sample_size"); err != nil {
		return nil, err
	}
	if raw.RawData, err = optionalNumbers(doc, "raw_data"); err != nil {
		return nil, err
	}

	protocol := doc.Get("protocol_parameters")
	if !protocol.Exists() {
		return raw, nil
	}
	if !protocol.IsObject() {
		return nil, fmt.Errorf("%w: protocol_parameters must be an object", core.ErrObservation)
	}
	p := &domainobs.ProtocolParameters{}
	if p.Temperature, err = optionalNumber(protocol, "temperature"); err != nil {
		return nil, err
	}
	if p.InitialRestingVm, err = optionalNumber(protocol, "initial_resting_Vm"); err != nil {
		return nil, err
	}
	if p.CurrentAmplitude, err = optionalNumber(protocol, "current_amplitude"); err != nil {
		return nil, err
	}
	if p.CurrentUnit, err = optionalString(protocol, "current_unit"); err != nil {
		return nil, err
	}
	raw.Protocol = p
	return raw, nil
}

func optionalNumber(doc gjson.Result, key string) (*float64, error) {
	v := doc.Get(key)
	if !v.Exists() || v.Type == gjson.Null {
		return nil, nil
	}
	if v.Type != gjson.Number {
		return nil, fmt.Errorf("%w: %s must be a number", core.ErrObservation, key)
	}
	f := v.Float()
	return &f, nil
}

func optionalInt(doc gjson.Result, key string) (*int, error) {
	f, err := optionalNumber(doc, key)
	if err != nil || f == nil {
		return nil, err
	}
	n := int(*f)
	if float64(n) != *f {
		return nil, fmt.Errorf("%w: %s must be an integer", core.ErrObservation, key)
	}
	return &n, nil
}

func optionalString(doc gjson.Result, key string) (*string, error) {
	v := doc.Get(key)
	if !v.Exists() || v.Type == gjson.Null {
		return nil, nil
	}
	if v.Type != gjson.String {
		return nil, fmt.Errorf("%w: %s must be a string", core.ErrObservation, key)
	}
	s := v.String()
	return &s, nil
}

func optionalNumbers(doc gjson.Result, key string) ([]float64, error) {
	v := doc.Get(key)
	if !v.Exists() || v.Type == gjson.Null {
		return nil, nil
	}
	if !v.IsArray() {
		return nil, fmt.Errorf("%w: %s must be an array", core.ErrObservation, key)
	}
	items := v.Array()
	out := make([]float64, 0, len(items))
	for i, item := range items {
		if item.Type != gjson.Number {
			return nil, fmt.Errorf("%w: %s[%d] must be a number", core.ErrObservation, key, i)
		}
		out = append(out, item.Float())
	}
	return out, nil
}
