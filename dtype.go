package gridview

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Dtype is the element type of a grid, written as a NumPy array protocol
// type string (typestr): a byte order character ("<" little-endian, ">"
// big-endian, "|" not relevant), a basic type character (see BasicType) and
// the number of bytes per element, e.g. "<f8" or "|u1".
//
// Grids only hold the numeric kinds: i, u and f. The other kinds parse, so
// stored metadata can be read back, but Validate rejects them.
type Dtype struct {
	ByteOrder ByteOrder
	BasicType BasicType
	ByteSize  int
	Units     string
}

var (
	_ json.Unmarshaler = (*Dtype)(nil)
	_ json.Marshaler   = (*Dtype)(nil)
)

// Common element types.
var (
	Float64 = Dtype{ByteOrder: BOLittleEndian, BasicType: BTFloatingPoint, ByteSize: 8}
	Float32 = Dtype{ByteOrder: BOLittleEndian, BasicType: BTFloatingPoint, ByteSize: 4}
	Int64   = Dtype{ByteOrder: BOLittleEndian, BasicType: BTInteger, ByteSize: 8}
	Int32   = Dtype{ByteOrder: BOLittleEndian, BasicType: BTInteger, ByteSize: 4}
	Int16   = Dtype{ByteOrder: BOLittleEndian, BasicType: BTInteger, ByteSize: 2}
	Uint8   = Dtype{ByteOrder: BONotRelevant, BasicType: BTUnsigned, ByteSize: 1}
	Uint16  = Dtype{ByteOrder: BOLittleEndian, BasicType: BTUnsigned, ByteSize: 2}
	Uint32  = Dtype{ByteOrder: BOLittleEndian, BasicType: BTUnsigned, ByteSize: 4}
	Uint64  = Dtype{ByteOrder: BOLittleEndian, BasicType: BTUnsigned, ByteSize: 8}
)

func ParseDtype(s string) (dt Dtype, err error) {
	// bug in python implementation uses HTML escape sequences when serializaing JSON
	s = strings.Replace(s, "&lt;", "<", 1)
	s = strings.Replace(s, "&gt;", ">", 1)

	if len(s) < 3 {
		return dt, fmt.Errorf("invalid Dtype string. %q is too short", s)
	}

	boByte, s := s[0], s[1:]
	dt.ByteOrder, err = ParseByteOrder(rune(boByte))
	if err != nil {
		return dt, err
	}

	typeByte, s := s[0], s[1:]
	dt.BasicType, err = ParseBasicType(rune(typeByte))
	if err != nil {
		return dt, err
	}

	var sizeStr, unitStr string
	for i, b := range s {
		if b == '[' {
			unitStr = s[i:]
			break
		}
		sizeStr += string(b)
	}

	size, err := strconv.ParseInt(sizeStr, 10, 0)
	if err != nil {
		return dt, err
	}
	dt.ByteSize = int(size)
	dt.Units = unitStr

	return dt, nil
}

func (dt Dtype) String() string {
	s := fmt.Sprintf("%s%s%d", string(dt.ByteOrder), string(dt.BasicType), dt.ByteSize)
	if dt.Units != "" {
		s += dt.Units
	}
	return s
}

func (dt Dtype) MarshalJSON() ([]byte, error) {
	return []byte(`"` + dt.String() + `"`), nil
}

func (dt *Dtype) UnmarshalJSON(d []byte) error {
	var s string
	if err := json.Unmarshal(d, &s); err != nil {
		return err
	}
	t, err := ParseDtype(s)
	if err != nil {
		return err
	}

	*dt = t
	return nil
}

// Validate reports whether dt can back a numeric grid.
func (dt Dtype) Validate() error {
	switch dt.BasicType {
	case BTFloatingPoint:
		if dt.ByteSize == 4 || dt.ByteSize == 8 {
			return nil
		}
	case BTInteger, BTUnsigned:
		switch dt.ByteSize {
		case 1, 2, 4, 8:
			return nil
		}
	}
	return errors.Wrapf(ErrUnsupported, "element type %s", dt)
}

func (dt Dtype) IsFloat() bool { return dt.BasicType == BTFloatingPoint }

// Lowest is the smallest value representable by dt. It doubles as the
// lower sentinel when comparing against invalid data.
func (dt Dtype) Lowest() float64 {
	switch dt.BasicType {
	case BTInteger:
		return -math.Ldexp(1, 8*dt.ByteSize-1)
	case BTUnsigned:
		return 0
	}
	return math.Inf(-1)
}

// Highest is the largest value representable by dt.
func (dt Dtype) Highest() float64 {
	switch dt.BasicType {
	case BTInteger:
		return math.Ldexp(1, 8*dt.ByteSize-1) - 1
	case BTUnsigned:
		return math.Ldexp(1, 8*dt.ByteSize) - 1
	}
	return math.Inf(1)
}

// Blank is the value marking an invalid cell: NaN for floats, the lowest
// signed value for integers and the highest unsigned value for unsigned
// integers (zero must stay a valid, cleared value).
func (dt Dtype) Blank() float64 {
	switch dt.BasicType {
	case BTInteger:
		return dt.Lowest()
	case BTUnsigned:
		return dt.Highest()
	}
	return math.NaN()
}

// IsBlank reports whether v is the blank value of dt.
func (dt Dtype) IsBlank(v float64) bool {
	if dt.IsFloat() {
		return math.IsNaN(v)
	}
	return v == dt.Blank()
}

// Cast converts v to the nearest value representable by dt.
func (dt Dtype) Cast(v float64) float64 {
	switch dt.BasicType {
	case BTFloatingPoint:
		if dt.ByteSize == 4 {
			return float64(float32(v))
		}
		return v
	case BTInteger, BTUnsigned:
		if math.IsNaN(v) {
			return dt.Blank()
		}
		v = math.Round(v)
		return math.Max(dt.Lowest(), math.Min(dt.Highest(), v))
	}
	return v
}

func (dt Dtype) order() binary.ByteOrder {
	switch dt.ByteOrder {
	case BOLittleEndian:
		return binary.LittleEndian
	default:
		return binary.BigEndian
	}
}

// newValueFunc returns a factory for typed buffers of the given length, the
// shape encoding/binary reads and writes.
func (dt Dtype) newValueFunc(size int) (func() interface{}, error) {
	var factory func() interface{}
	switch dt.BasicType {
	case BTInteger:
		switch dt.ByteSize {
		case 1:
			factory = func() interface{} { return make([]int8, size) }
		case 2:
			factory = func() interface{} { return make([]int16, size) }
		case 4:
			factory = func() interface{} { return make([]int32, size) }
		case 8:
			factory = func() interface{} { return make([]int64, size) }
		}
	case BTUnsigned:
		switch dt.ByteSize {
		case 1:
			factory = func() interface{} { return make([]uint8, size) }
		case 2:
			factory = func() interface{} { return make([]uint16, size) }
		case 4:
			factory = func() interface{} { return make([]uint32, size) }
		case 8:
			factory = func() interface{} { return make([]uint64, size) }
		}
	case BTFloatingPoint:
		switch dt.ByteSize {
		case 4:
			factory = func() interface{} { return make([]float32, size) }
		case 8:
			factory = func() interface{} { return make([]float64, size) }
		}
	}
	if factory == nil {
		return nil, errors.Wrapf(ErrUnsupported, "decoding type %s", dt)
	}
	return factory, nil
}

// Encode writes vals to w in dt's binary layout.
func (dt Dtype) Encode(w io.Writer, vals []float64) error {
	fac, err := dt.newValueFunc(len(vals))
	if err != nil {
		return err
	}
	buf := fac()
	switch b := buf.(type) {
	case []int8:
		for i, v := range vals {
			b[i] = int8(dt.Cast(v))
		}
	case []int16:
		for i, v := range vals {
			b[i] = int16(dt.Cast(v))
		}
	case []int32:
		for i, v := range vals {
			b[i] = int32(dt.Cast(v))
		}
	case []int64:
		for i, v := range vals {
			b[i] = toInt64(dt.Cast(v))
		}
	case []uint8:
		for i, v := range vals {
			b[i] = uint8(dt.Cast(v))
		}
	case []uint16:
		for i, v := range vals {
			b[i] = uint16(dt.Cast(v))
		}
	case []uint32:
		for i, v := range vals {
			b[i] = uint32(dt.Cast(v))
		}
	case []uint64:
		for i, v := range vals {
			b[i] = toUint64(dt.Cast(v))
		}
	case []float32:
		for i, v := range vals {
			b[i] = float32(v)
		}
	case []float64:
		copy(b, vals)
	}
	return binary.Write(w, dt.order(), buf)
}

// float64 cannot hold the 64-bit upper bounds exactly; saturate instead of
// relying on an out of range conversion.
func toInt64(v float64) int64 {
	if v >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}

func toUint64(v float64) uint64 {
	if v >= math.MaxUint64 {
		return math.MaxUint64
	}
	return uint64(v)
}

// Decode reads len(vals) elements of dt from r into vals.
func (dt Dtype) Decode(r io.Reader, vals []float64) error {
	fac, err := dt.newValueFunc(len(vals))
	if err != nil {
		return err
	}
	buf := fac()
	if err := binary.Read(r, dt.order(), buf); err != nil {
		return err
	}
	switch b := buf.(type) {
	case []int8:
		for i, v := range b {
			vals[i] = float64(v)
		}
	case []int16:
		for i, v := range b {
			vals[i] = float64(v)
		}
	case []int32:
		for i, v := range b {
			vals[i] = float64(v)
		}
	case []int64:
		for i, v := range b {
			vals[i] = float64(v)
		}
	case []uint8:
		for i, v := range b {
			vals[i] = float64(v)
		}
	case []uint16:
		for i, v := range b {
			vals[i] = float64(v)
		}
	case []uint32:
		for i, v := range b {
			vals[i] = float64(v)
		}
	case []uint64:
		for i, v := range b {
			vals[i] = float64(v)
		}
	case []float32:
		for i, v := range b {
			vals[i] = float64(v)
		}
	case []float64:
		copy(vals, b)
	}
	return nil
}

type ByteOrder rune

func ParseByteOrder(r rune) (ByteOrder, error) {
	o := ByteOrder(r)
	if _, ok := byteOrders[o]; !ok {
		return o, fmt.Errorf("unsupported byte order format: %q", r)
	}
	return o, nil
}

const (
	BONotRelevant  ByteOrder = '|'
	BOLittleEndian ByteOrder = '<'
	BOBigEndian    ByteOrder = '>'
)

var byteOrders = map[ByteOrder]struct{}{
	BONotRelevant:  {},
	BOLittleEndian: {},
	BOBigEndian:    {},
}

type BasicType rune

func ParseBasicType(r rune) (BasicType, error) {
	t := BasicType(r)
	if _, ok := supportedBasicTypes[t]; !ok {
		return t, fmt.Errorf("unsupported basic type: %q", r)
	}
	return t, nil
}

// Human is the readable name of bt, e.g. "float" or "uint".
func (bt BasicType) Human() string {
	return supportedBasicTypes[bt]
}

const (
	BTBoolean       BasicType = 'b'
	BTInteger       BasicType = 'i'
	BTUnsigned      BasicType = 'u'
	BTFloatingPoint BasicType = 'f'
	BTComplex       BasicType = 'c'
	BTTimedelta     BasicType = 'm'
	BTDatetime      BasicType = 'M'
	BTString        BasicType = 'S'
	BTUnicode       BasicType = 'U'
	BTOther         BasicType = 'V'
)

var supportedBasicTypes = map[BasicType]string{
	BTBoolean:       "bool",
	BTInteger:       "int",
	BTUnsigned:      "uint",
	BTFloatingPoint: "float",
	BTComplex:       "complex",
	BTTimedelta:     "timeDelta",
	BTDatetime:      "dateTime",
	BTString:        "string",
	BTUnicode:       "unicode",
	BTOther:         "other",
}
