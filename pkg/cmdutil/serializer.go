package cmdutil

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

type Codec interface {
	Serializer
	Deserializer
}

type Serializer interface {
	Serialize(v any) ([]byte, error)
}

type Deserializer interface {
	Deserialize(b []byte, v any) error
}

type JSONSerializer struct{}

func (s *JSONSerializer) Serialize(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// YamlSerializer goes through JSON first so the output keys follow the json tags of the api types
type YamlSerializer struct{}

func (s *YamlSerializer) Serialize(v any) ([]byte, error) {
	jsonb, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var generic any
	if err := json.Unmarshal(jsonb, &generic); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type JSONDeserializer struct{}

func (d *JSONDeserializer) Deserialize(b []byte, v any) error {
	return json.Unmarshal(b, v)
}

type YamlDeserializer struct{}

func (d *YamlDeserializer) Deserialize(b []byte, v any) error {
	var generic any
	if err := yaml.Unmarshal(b, &generic); err != nil {
		return err
	}

	jsonb, err := json.Marshal(generic)
	if err != nil {
		return fmt.Errorf("yaml document cannot be represented as json: %w", err)
	}

	jsonDeserializer := &JSONDeserializer{}
	return jsonDeserializer.Deserialize(jsonb, v)
}

type JSONCodec struct {
	*JSONSerializer
	*JSONDeserializer
}

func NewJSONCodec() Codec {
	return &JSONCodec{
		&JSONSerializer{},
		&JSONDeserializer{},
	}
}

type YamlCodec struct {
	*YamlSerializer
	*YamlDeserializer
}

func NewYamlCodec() Codec {
	return &YamlCodec{
		&YamlSerializer{},
		&YamlDeserializer{},
	}
}

// CodecFor returns the codec of an output format, json or yaml
func CodecFor(format string) (Codec, error) {
	switch format {
	case "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYamlCodec(), nil
	}
	return nil, fmt.Errorf("unsupported output format %q, use json or yaml", format)
}
