package main

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
	"gopkg.in/yaml.v3"
)

// A VectorFlag is a flag.Value that parses comma-delimited
// 3D vectors, e.g. "3.0, 2, -1".
//
// In YAML, it may also be written as a sequence of three numbers.
type VectorFlag struct {
	Value model3d.Coord3D
}

func (v *VectorFlag) String() string {
	arr := v.Value.Array()
	return formatFloats(arr[:])
}

func (v *VectorFlag) Set(s string) error {
	values, err := parseFloats(s)
	if err != nil {
		return err
	}
	if len(values) != 3 {
		return errors.Errorf("vector does not have exactly three components: %s", s)
	}
	for _, x := range values {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return errors.Errorf("vector has a non-finite component: %s", s)
		}
	}
	v.Value = model3d.XYZ(values[0], values[1], values[2])
	return nil
}

func (v *VectorFlag) UnmarshalYAML(node *yaml.Node) error {
	values, err := decodeYAMLFloats(node)
	if err != nil {
		return err
	}
	if len(values) != 3 {
		return errors.Errorf("line %d: vector needs three components, got %d", node.Line, len(values))
	}
	v.Value = model3d.XYZ(values[0], values[1], values[2])
	return nil
}

// A FloatListFlag is a flag.Value that parses a non-empty
// comma-delimited list of numbers, e.g. "3,6".
type FloatListFlag struct {
	Values []float64
}

func (f *FloatListFlag) String() string {
	return formatFloats(f.Values)
}

func (f *FloatListFlag) Set(s string) error {
	values, err := parseFloats(s)
	if err != nil {
		return err
	}
	f.Values = values
	return nil
}

func (f *FloatListFlag) UnmarshalYAML(node *yaml.Node) error {
	values, err := decodeYAMLFloats(node)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return errors.Errorf("line %d: empty list", node.Line)
	}
	f.Values = values
	return nil
}

func formatFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, x := range values {
		parts[i] = strconv.FormatFloat(x, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

func parseFloats(s string) ([]float64, error) {
	var res []float64
	for _, x := range strings.Split(s, ",") {
		x = strings.TrimSpace(x)
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid component '%s' in list '%s'", x, s)
		}
		res = append(res, f)
	}
	return res, nil
}

// decodeYAMLFloats accepts either a sequence of numbers or a
// scalar in the flag syntax.
func decodeYAMLFloats(node *yaml.Node) ([]float64, error) {
	switch node.Kind {
	case yaml.SequenceNode:
		var res []float64
		if err := node.Decode(&res); err != nil {
			return nil, err
		}
		return res, nil
	case yaml.ScalarNode:
		return parseFloats(node.Value)
	}
	return nil, errors.Errorf("line %d: expected a list of numbers", node.Line)
}
