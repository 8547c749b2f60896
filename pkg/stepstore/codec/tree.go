package codec

import (
	"fmt"
	"math"
	"sort"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Tree is a nested mapping of named numeric arrays.
//
// Values are either nested trees (Tree or map[string]any) or numeric slice
// leaves: []float64, []float32, []int64, []int32 or []int.
type Tree map[string]any

// TreeProto encodes a Tree as a protobuf google.protobuf.Struct.
//
// Leaves travel as lists of doubles; Unmarshal converts them back to the leaf
// types found in the template. Integers beyond 2^53 lose precision.
type TreeProto struct{}

// Compile-time interface check.
var _ Codec[Tree] = TreeProto{}

// Name implements Codec.
func (TreeProto) Name() string { return NameTreeProto }

// Marshal implements Codec.
func (TreeProto) Marshal(t Tree) ([]byte, error) {
	s, err := treeToStruct(t, "")
	if err != nil {
		return nil, err
	}
	data, err := proto.MarshalOptions{Deterministic: true}.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal tree: %w", err)
	}
	return data, nil
}

// Unmarshal implements Codec.
func (TreeProto) Unmarshal(data []byte, template Tree) (Tree, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal tree: %w", err)
	}
	out, err := structToTree(template, &s, "")
	if err != nil {
		return nil, err
	}
	return out, nil
}

func treeToStruct(t map[string]any, path string) (*structpb.Struct, error) {
	s := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(t))}
	for k, v := range t {
		p := joinPath(path, k)
		switch node := v.(type) {
		case Tree:
			nested, err := treeToStruct(node, p)
			if err != nil {
				return nil, err
			}
			s.Fields[k] = structpb.NewStructValue(nested)
		case map[string]any:
			nested, err := treeToStruct(node, p)
			if err != nil {
				return nil, err
			}
			s.Fields[k] = structpb.NewStructValue(nested)
		default:
			nums, ok := leafValues(v)
			if !ok {
				return nil, fmt.Errorf("%w: unsupported leaf %T at %q", ErrStructure, v, p)
			}
			list := &structpb.ListValue{Values: make([]*structpb.Value, len(nums))}
			for i, n := range nums {
				list.Values[i] = structpb.NewNumberValue(n)
			}
			s.Fields[k] = structpb.NewListValue(list)
		}
	}
	return s, nil
}

func structToTree(template map[string]any, s *structpb.Struct, path string) (Tree, error) {
	for k := range s.GetFields() {
		if _, ok := template[k]; !ok {
			return nil, fmt.Errorf("%w: unexpected key %q", ErrStructure, joinPath(path, k))
		}
	}

	out := make(Tree, len(template))
	for _, k := range sortedKeys(template) {
		p := joinPath(path, k)
		field, ok := s.GetFields()[k]
		if !ok {
			return nil, fmt.Errorf("%w: missing key %q", ErrStructure, p)
		}

		switch tmpl := template[k].(type) {
		case Tree:
			nested, err := nestedStruct(field, tmpl, p)
			if err != nil {
				return nil, err
			}
			out[k] = nested
		case map[string]any:
			nested, err := nestedStruct(field, tmpl, p)
			if err != nil {
				return nil, err
			}
			out[k] = map[string]any(nested)
		default:
			leaf, err := rebuildLeaf(tmpl, field, p)
			if err != nil {
				return nil, err
			}
			out[k] = leaf
		}
	}
	return out, nil
}

func nestedStruct(field *structpb.Value, template map[string]any, path string) (Tree, error) {
	nested := field.GetStructValue()
	if nested == nil {
		return nil, fmt.Errorf("%w: expected mapping at %q", ErrStructure, path)
	}
	return structToTree(template, nested, path)
}

// rebuildLeaf converts a list of numbers to the slice type of tmpl.
func rebuildLeaf(tmpl any, field *structpb.Value, path string) (any, error) {
	list := field.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("%w: expected array at %q", ErrStructure, path)
	}

	nums := make([]float64, len(list.GetValues()))
	for i, v := range list.GetValues() {
		n, ok := v.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return nil, fmt.Errorf("%w: non-numeric element %d at %q", ErrStructure, i, path)
		}
		nums[i] = n.NumberValue
	}

	switch tmpl.(type) {
	case []float64:
		return nums, nil
	case []float32:
		out := make([]float32, len(nums))
		for i, n := range nums {
			out[i] = float32(n)
		}
		return out, nil
	case []int64:
		return toInts[int64](nums, path)
	case []int32:
		return toInts[int32](nums, path)
	case []int:
		return toInts[int](nums, path)
	}
	return nil, fmt.Errorf("%w: unsupported template leaf %T at %q", ErrStructure, tmpl, path)
}

func toInts[T int | int32 | int64](nums []float64, path string) ([]T, error) {
	out := make([]T, len(nums))
	for i, n := range nums {
		if n != math.Trunc(n) {
			return nil, fmt.Errorf("%w: fractional value %v for integer array at %q", ErrStructure, n, path)
		}
		out[i] = T(n)
	}
	return out, nil
}

func leafValues(v any) ([]float64, bool) {
	switch leaf := v.(type) {
	case []float64:
		return leaf, true
	case []float32:
		return widen(leaf), true
	case []int64:
		return widen(leaf), true
	case []int32:
		return widen(leaf), true
	case []int:
		return widen(leaf), true
	}
	return nil, false
}

func widen[T float32 | int | int32 | int64](xs []T) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = float64(x)
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
