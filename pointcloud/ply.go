package pointcloud

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
)

const (
	plyASCII        = "ascii"
	plyLittleEndian = "binary_little_endian"
	plyBigEndian    = "binary_big_endian"
)

var plyTypeSizes = map[string]int{
	"char": 1, "int8": 1,
	"uchar": 1, "uint8": 1,
	"short": 2, "int16": 2,
	"ushort": 2, "uint16": 2,
	"int": 4, "int32": 4,
	"uint": 4, "uint32": 4,
	"float": 4, "float32": 4,
	"double": 8, "float64": 8,
}

// maxPreallocPoints bounds the capacity reserved from a header's
// point count; larger clouds grow as rows are read.
const maxPreallocPoints = 1 << 20

type plyProperty struct {
	Name string
	Type string

	// For list properties, the type of the leading count.
	CountType string
	IsList    bool
}

func (p *plyProperty) isFloat() bool {
	switch p.Type {
	case "float", "float32", "double", "float64":
		return true
	}
	return false
}

type plyElement struct {
	Name       string
	Count      int
	Properties []plyProperty
}

type plyHeader struct {
	Format   string
	Elements []plyElement
}

// ReadPLY decodes the vertex element of a PLY file.
//
// The vertices must have x, y, and z properties. If red, green,
// and blue properties are present, integer channels are scaled
// from [0, 255] and float channels are used as-is; otherwise,
// every point is white.
func ReadPLY(r io.Reader) (*PointCloud, error) {
	br := bufio.NewReader(r)
	header, err := readPLYHeader(br)
	if err != nil {
		return nil, err
	}

	var values plyValueReader
	switch header.Format {
	case plyASCII:
		scanner := bufio.NewScanner(br)
		scanner.Split(bufio.ScanWords)
		values = &plyASCIIReader{scanner: scanner}
	case plyLittleEndian:
		values = &plyBinaryReader{r: br, order: binary.LittleEndian}
	case plyBigEndian:
		values = &plyBinaryReader{r: br, order: binary.BigEndian}
	default:
		return nil, errors.Errorf("unsupported PLY format: %s", header.Format)
	}

	for _, elem := range header.Elements {
		if elem.Name == "vertex" {
			return readPLYVertices(values, &elem)
		}
		for i := 0; i < elem.Count; i++ {
			for _, prop := range elem.Properties {
				if _, err := readPLYProperty(values, &prop); err != nil {
					return nil, errors.Wrapf(err, "skip element %s", elem.Name)
				}
			}
		}
	}
	return nil, errors.New("PLY file has no vertex element")
}

func readPLYHeader(r *bufio.Reader) (*plyHeader, error) {
	header := &plyHeader{}
	for lineIdx := 0; ; lineIdx++ {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, errors.Wrap(err, "read PLY header")
		}
		fields := strings.Fields(line)
		if lineIdx == 0 {
			if len(fields) != 1 || fields[0] != "ply" {
				return nil, errors.New("missing PLY magic")
			}
			continue
		}
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "comment", "obj_info":
		case "format":
			if len(fields) != 3 {
				return nil, errors.Errorf("invalid format line: %q", strings.TrimSpace(line))
			}
			header.Format = fields[1]
		case "element":
			if len(fields) != 3 {
				return nil, errors.Errorf("invalid element line: %q", strings.TrimSpace(line))
			}
			count, err := strconv.Atoi(fields[2])
			if err != nil || count < 0 {
				return nil, errors.Errorf("invalid element count: %q", fields[2])
			}
			header.Elements = append(header.Elements, plyElement{Name: fields[1], Count: count})
		case "property":
			if len(header.Elements) == 0 {
				return nil, errors.New("property declared before any element")
			}
			prop, err := parsePLYProperty(fields[1:])
			if err != nil {
				return nil, err
			}
			elem := &header.Elements[len(header.Elements)-1]
			elem.Properties = append(elem.Properties, *prop)
		case "end_header":
			if header.Format == "" {
				return nil, errors.New("PLY header has no format line")
			}
			return header, nil
		default:
			return nil, errors.Errorf("unexpected PLY header line: %q", strings.TrimSpace(line))
		}
	}
}

func parsePLYProperty(fields []string) (*plyProperty, error) {
	if len(fields) == 4 && fields[0] == "list" {
		if _, ok := plyTypeSizes[fields[1]]; !ok {
			return nil, errors.Errorf("unknown PLY type: %s", fields[1])
		}
		if _, ok := plyTypeSizes[fields[2]]; !ok {
			return nil, errors.Errorf("unknown PLY type: %s", fields[2])
		}
		return &plyProperty{Name: fields[3], Type: fields[2], CountType: fields[1], IsList: true}, nil
	} else if len(fields) == 2 {
		if _, ok := plyTypeSizes[fields[0]]; !ok {
			return nil, errors.Errorf("unknown PLY type: %s", fields[0])
		}
		return &plyProperty{Name: fields[1], Type: fields[0]}, nil
	}
	return nil, errors.Errorf("invalid property: %s", strings.Join(fields, " "))
}

func readPLYVertices(values plyValueReader, elem *plyElement) (*PointCloud, error) {
	indices := map[string]int{}
	for i, prop := range elem.Properties {
		if !prop.IsList {
			indices[prop.Name] = i
		}
	}
	var coordIdx [3]int
	for i, name := range []string{"x", "y", "z"} {
		idx, ok := indices[name]
		if !ok {
			return nil, errors.Errorf("vertex element is missing property %q", name)
		}
		coordIdx[i] = idx
	}
	var colorIdx [3]int
	hasColor := true
	for i, name := range []string{"red", "green", "blue"} {
		idx, ok := indices[name]
		if !ok {
			hasColor = false
			break
		}
		colorIdx[i] = idx
	}

	capacity := min(elem.Count, maxPreallocPoints)
	positions := make([]model3d.Coord3D, 0, capacity)
	colors := make([][3]float64, 0, capacity)
	row := make([]float64, len(elem.Properties))
	for i := 0; i < elem.Count; i++ {
		for j, prop := range elem.Properties {
			x, err := readPLYProperty(values, &prop)
			if err != nil {
				return nil, errors.Wrapf(err, "read vertex %d", i)
			}
			row[j] = x
		}
		positions = append(positions, model3d.XYZ(row[coordIdx[0]], row[coordIdx[1]], row[coordIdx[2]]))
		color := [3]float64{1, 1, 1}
		if hasColor {
			for k, idx := range colorIdx {
				c := row[idx]
				if !elem.Properties[idx].isFloat() {
					c /= 255
				}
				color[k] = c
			}
		}
		colors = append(colors, color)
	}
	return New(positions, colors)
}

// readPLYProperty reads one property value. List properties are
// consumed and reported as their length.
func readPLYProperty(values plyValueReader, prop *plyProperty) (float64, error) {
	if !prop.IsList {
		return values.Read(prop.Type)
	}
	count, err := values.Read(prop.CountType)
	if err != nil {
		return 0, err
	}
	if count < 0 || count != math.Floor(count) {
		return 0, errors.Errorf("invalid list length %v for property %s", count, prop.Name)
	}
	for i := 0; i < int(count); i++ {
		if _, err := values.Read(prop.Type); err != nil {
			return 0, err
		}
	}
	return count, nil
}

type plyValueReader interface {
	Read(typ string) (float64, error)
}

type plyASCIIReader struct {
	scanner *bufio.Scanner
}

func (p *plyASCIIReader) Read(typ string) (float64, error) {
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return 0, err
		}
		return 0, io.ErrUnexpectedEOF
	}
	x, err := strconv.ParseFloat(p.scanner.Text(), 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s value", typ)
	}
	return x, nil
}

type plyBinaryReader struct {
	r     io.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (p *plyBinaryReader) Read(typ string) (float64, error) {
	size := plyTypeSizes[typ]
	data := p.buf[:size]
	if _, err := io.ReadFull(p.r, data); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return 0, err
	}
	switch typ {
	case "char", "int8":
		return float64(int8(data[0])), nil
	case "uchar", "uint8":
		return float64(data[0]), nil
	case "short", "int16":
		return float64(int16(p.order.Uint16(data))), nil
	case "ushort", "uint16":
		return float64(p.order.Uint16(data)), nil
	case "int", "int32":
		return float64(int32(p.order.Uint32(data))), nil
	case "uint", "uint32":
		return float64(p.order.Uint32(data)), nil
	case "float", "float32":
		return float64(math.Float32frombits(p.order.Uint32(data))), nil
	case "double", "float64":
		return math.Float64frombits(p.order.Uint64(data)), nil
	}
	return 0, errors.Errorf("unknown PLY type: %s", typ)
}

// WritePLY encodes the cloud as a binary little-endian PLY file
// with float positions and 8-bit colors.
func WritePLY(w io.Writer, cloud *PointCloud) error {
	bw := bufio.NewWriter(w)
	header := fmt.Sprintf("ply\n"+
		"format binary_little_endian 1.0\n"+
		"element vertex %d\n"+
		"property float x\nproperty float y\nproperty float z\n"+
		"property uchar red\nproperty uchar green\nproperty uchar blue\n"+
		"end_header\n", cloud.Len())
	if _, err := bw.WriteString(header); err != nil {
		return err
	}
	var record [15]byte
	for i, pos := range cloud.Positions {
		for j, x := range pos.Array() {
			binary.LittleEndian.PutUint32(record[j*4:], math.Float32bits(float32(x)))
		}
		rgb := ColorBytes(cloud.Colors[i])
		copy(record[12:], rgb[:])
		if _, err := bw.Write(record[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}
