// Package codec converts checkpoint values to bytes and back.
//
// The checkpoint store treats every value as opaque bytes; a Codec is the only
// place that knows the value's shape. Unmarshal receives a template value of the
// same structure so codecs for loosely typed values can rebuild typed leaves.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Codec serializes values of type V.
// Implementations must be safe for concurrent use.
type Codec[V any] interface {
	// Name identifies the codec in configuration and logs.
	Name() string

	// Marshal serializes v.
	Marshal(v V) ([]byte, error)

	// Unmarshal decodes data into a new value shaped like template.
	// The template itself is never modified.
	Unmarshal(data []byte, template V) (V, error)
}

// ErrStructure indicates decoded data does not match the template's structure.
var ErrStructure = errors.New("structure mismatch")

// Codec names accepted by ByName.
const (
	NameJSON      = "json"
	NameYAML      = "yaml"
	NameTreeProto = "tree-proto"
)

// JSON encodes values with encoding/json.
// The template only selects the target type; decoding starts from a zero V.
type JSON[V any] struct{}

// Compile-time interface check.
var _ Codec[map[string][]int] = JSON[map[string][]int]{}

// Name implements Codec.
func (JSON[V]) Name() string { return NameJSON }

// Marshal implements Codec.
func (JSON[V]) Marshal(v V) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return data, nil
}

// Unmarshal implements Codec.
func (JSON[V]) Unmarshal(data []byte, _ V) (V, error) {
	var out V
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("unmarshal json: %w", err)
	}
	return out, nil
}

// YAML encodes values with gopkg.in/yaml.v3.
type YAML[V any] struct{}

// Name implements Codec.
func (YAML[V]) Name() string { return NameYAML }

// Marshal implements Codec.
func (YAML[V]) Marshal(v V) ([]byte, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	return data, nil
}

// Unmarshal implements Codec.
func (YAML[V]) Unmarshal(data []byte, _ V) (V, error) {
	var out V
	if err := yaml.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("unmarshal yaml: %w", err)
	}
	return out, nil
}

// ByName returns the codec registered under name for values of type V.
// "tree-proto" is only available when V is Tree.
func ByName[V any](name string) (Codec[V], error) {
	switch name {
	case NameJSON, "":
		return JSON[V]{}, nil
	case NameYAML:
		return YAML[V]{}, nil
	case NameTreeProto:
		if c, ok := any(TreeProto{}).(Codec[V]); ok {
			return c, nil
		}
		return nil, fmt.Errorf("codec %q requires codec.Tree values", name)
	}
	return nil, fmt.Errorf("unknown codec %q", name)
}
