package pointcloud

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"
)

type pcdHeader struct {
	Fields []string
	Sizes  []int
	Types  []string
	Counts []int
	Points int
	Data   string
}

func (p *pcdHeader) fieldIndex(name string) int {
	for i, f := range p.Fields {
		if f == name {
			return i
		}
	}
	return -1
}

// ReadPCD decodes an ascii or binary PCD file.
//
// The points must have x, y, and z fields. An rgb field, either
// as a packed integer or as a float holding the packed bits, is
// used for colors; otherwise, every point is white.
func ReadPCD(r io.Reader) (*PointCloud, error) {
	br := bufio.NewReader(r)
	header, err := readPCDHeader(br)
	if err != nil {
		return nil, err
	}

	var coordIdx [3]int
	for i, name := range []string{"x", "y", "z"} {
		coordIdx[i] = header.fieldIndex(name)
		if coordIdx[i] < 0 {
			return nil, errors.Errorf("PCD file is missing field %q", name)
		}
	}
	rgbIdx := header.fieldIndex("rgb")
	if rgbIdx < 0 {
		rgbIdx = header.fieldIndex("rgba")
	}

	var readRow func(row []float64) error
	switch header.Data {
	case "ascii":
		readRow = func(row []float64) error {
			return readPCDASCIIRow(br, header, row)
		}
	case "binary":
		readRow = func(row []float64) error {
			return readPCDBinaryRow(br, header, row)
		}
	default:
		return nil, errors.Errorf("unsupported PCD data type: %s", header.Data)
	}

	capacity := min(header.Points, maxPreallocPoints)
	positions := make([]model3d.Coord3D, 0, capacity)
	colors := make([][3]float64, 0, capacity)
	row := make([]float64, len(header.Fields))
	for i := 0; i < header.Points; i++ {
		if err := readRow(row); err != nil {
			return nil, errors.Wrapf(err, "read point %d", i)
		}
		positions = append(positions, model3d.XYZ(row[coordIdx[0]], row[coordIdx[1]], row[coordIdx[2]]))
		if rgbIdx < 0 {
			colors = append(colors, [3]float64{1, 1, 1})
		} else {
			colors = append(colors, unpackPCDColor(row[rgbIdx], header.Types[rgbIdx]))
		}
	}
	return New(positions, colors)
}

func readPCDHeader(r *bufio.Reader) (*pcdHeader, error) {
	header := &pcdHeader{}
	var width, height int
	for header.Data == "" {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, errors.Wrap(err, "read PCD header")
		}
		line, _, _ = strings.Cut(line, "#")
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		values := fields[1:]
		switch fields[0] {
		case "VERSION", "VIEWPOINT":
		case "FIELDS":
			header.Fields = values
		case "SIZE":
			header.Sizes, err = parsePCDInts(values)
		case "TYPE":
			header.Types = values
		case "COUNT":
			header.Counts, err = parsePCDInts(values)
		case "WIDTH":
			width, err = parsePCDInt(values)
		case "HEIGHT":
			height, err = parsePCDInt(values)
		case "POINTS":
			header.Points, err = parsePCDInt(values)
		case "DATA":
			if len(values) != 1 {
				return nil, errors.Errorf("invalid DATA line: %q", strings.TrimSpace(line))
			}
			header.Data = values[0]
		default:
			return nil, errors.Errorf("unexpected PCD header line: %q", strings.TrimSpace(line))
		}
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s", fields[0])
		}
	}

	n := len(header.Fields)
	if n == 0 {
		return nil, errors.New("PCD header has no FIELDS")
	}
	if header.Counts == nil {
		header.Counts = make([]int, n)
		for i := range header.Counts {
			header.Counts[i] = 1
		}
	}
	if len(header.Sizes) != n || len(header.Types) != n || len(header.Counts) != n {
		return nil, errors.New("PCD FIELDS, SIZE, TYPE, and COUNT lengths differ")
	}
	for i, c := range header.Counts {
		if c != 1 {
			return nil, errors.Errorf("unsupported COUNT %d for field %s", c, header.Fields[i])
		}
	}
	if header.Points == 0 && width*height > 0 {
		header.Points = width * height
	}
	return header, nil
}

func parsePCDInts(values []string) ([]int, error) {
	res := make([]int, len(values))
	for i, v := range values {
		x, err := strconv.Atoi(v)
		if err != nil {
			return nil, err
		}
		res[i] = x
	}
	return res, nil
}

func parsePCDInt(values []string) (int, error) {
	if len(values) != 1 {
		return 0, errors.Errorf("expected one value but got %d", len(values))
	}
	x, err := strconv.Atoi(values[0])
	if err != nil {
		return 0, err
	}
	if x < 0 {
		return 0, errors.Errorf("negative value %d", x)
	}
	return x, nil
}

func readPCDASCIIRow(r *bufio.Reader, header *pcdHeader, row []float64) error {
	for {
		line, err := r.ReadString('\n')
		fields := strings.Fields(line)
		if len(fields) == 0 {
			if err != nil {
				return io.ErrUnexpectedEOF
			}
			continue
		}
		if len(fields) != len(row) {
			return errors.Errorf("expected %d fields but got %d", len(row), len(fields))
		}
		for i, f := range fields {
			if header.Types[i] == "F" {
				row[i], err = strconv.ParseFloat(f, 64)
			} else {
				var x int64
				x, err = strconv.ParseInt(f, 10, 64)
				row[i] = float64(x)
			}
			if err != nil {
				return errors.Wrapf(err, "parse field %s", header.Fields[i])
			}
		}
		return nil
	}
}

func readPCDBinaryRow(r io.Reader, header *pcdHeader, row []float64) error {
	var buf [8]byte
	for i, size := range header.Sizes {
		if size != 1 && size != 2 && size != 4 && size != 8 {
			return errors.Errorf("unsupported size %d for field %s", size, header.Fields[i])
		}
		data := buf[:size]
		if _, err := io.ReadFull(r, data); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return err
		}
		row[i] = decodePCDValue(data, header.Types[i])
	}
	return nil
}

func decodePCDValue(data []byte, typ string) float64 {
	order := binary.LittleEndian
	switch len(data) {
	case 1:
		if typ == "I" {
			return float64(int8(data[0]))
		}
		return float64(data[0])
	case 2:
		if typ == "I" {
			return float64(int16(order.Uint16(data)))
		}
		return float64(order.Uint16(data))
	case 4:
		bits := order.Uint32(data)
		switch typ {
		case "F":
			return float64(math.Float32frombits(bits))
		case "I":
			return float64(int32(bits))
		}
		return float64(bits)
	default:
		bits := order.Uint64(data)
		switch typ {
		case "F":
			return math.Float64frombits(bits)
		case "I":
			return float64(int64(bits))
		}
		return float64(bits)
	}
}

// unpackPCDColor decodes a 0x00RRGGBB packed color. PCL stores it
// in the bits of a float, so float fields are reinterpreted.
func unpackPCDColor(value float64, typ string) [3]float64 {
	var packed uint32
	if typ == "F" {
		packed = math.Float32bits(float32(value))
	} else {
		packed = uint32(int64(value))
	}
	return [3]float64{
		float64((packed>>16)&0xff) / 255,
		float64((packed>>8)&0xff) / 255,
		float64(packed&0xff) / 255,
	}
}
