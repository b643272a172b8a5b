package vr

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Validation failure categories. Callers wrap these into their own typed
// errors; use errors.Is to classify.
var (
	ErrMismatch     = errors.New("value does not match VR")
	ErrMultiplicity = errors.New("value multiplicity violation")
	ErrOverflow     = errors.New("encoded value exceeds VR length limit")
)

// codec binds a VR family to its validate/encode/decode functions. A closed
// dispatch table instead of runtime type inspection keeps VR rules in one place.
type codec struct {
	validate func(v VR, value interface{}) error
	encode   func(v VR, value interface{}) ([]byte, error)
	decode   func(v VR, data []byte) (interface{}, error)
}

var codecs = map[VR]codec{}

func init() {
	str := codec{validate: validateString, encode: encodeString, decode: decodeString}
	for _, v := range []VR{AE, AS, CS, DA, DS, DT, IS, LO, LT, PN, SH, ST, TM, UC, UI, UR, UT} {
		codecs[v] = str
	}
	codecs[US] = codec{validate: validateUint16, encode: encodeUint16, decode: decodeUint16}
	codecs[SS] = codec{validate: validateInt16, encode: encodeInt16, decode: decodeInt16}
	codecs[UL] = codec{validate: validateUint32, encode: encodeUint32, decode: decodeUint32}
	codecs[SL] = codec{validate: validateInt32, encode: encodeInt32, decode: decodeInt32}
	codecs[FL] = codec{validate: validateFloat32, encode: encodeFloat32, decode: decodeFloat32}
	codecs[FD] = codec{validate: validateFloat64, encode: encodeFloat64, decode: decodeFloat64}
	codecs[AT] = codec{validate: validateBytes, encode: encodeBytes, decode: decodeBytes}
	raw := codec{validate: validateBytes, encode: encodeBytes, decode: decodeBytes}
	for _, v := range []VR{OB, OD, OF, OL, OW, UN} {
		codecs[v] = raw
	}
	// SQ values are []*DataSet and are handled by the dataset layer; the
	// table entry only rejects non-sequence payloads.
	codecs[SQ] = codec{
		validate: func(v VR, value interface{}) error {
			return fmt.Errorf("%w: sequence values are edited item by item", ErrMismatch)
		},
		encode: func(v VR, value interface{}) ([]byte, error) {
			return nil, fmt.Errorf("sequence encoding is handled by the dataset writer")
		},
		decode: func(v VR, data []byte) (interface{}, error) {
			return nil, fmt.Errorf("sequence decoding is handled by the dataset reader")
		},
	}
}

// Validate checks value against the VR's type and multiplicity rules
// without encoding it.
func Validate(v VR, value interface{}) error {
	c, ok := codecs[v]
	if !ok {
		return fmt.Errorf("%w: unknown VR %q", ErrMismatch, string(v))
	}
	return c.validate(v, value)
}

// Encode serializes value per the VR's byte layout, including even-length
// padding for string VRs.
func Encode(v VR, value interface{}) ([]byte, error) {
	c, ok := codecs[v]
	if !ok {
		return nil, fmt.Errorf("unknown VR %q", string(v))
	}
	if err := c.validate(v, value); err != nil {
		return nil, err
	}
	return c.encode(v, value)
}

// Decode converts raw value bytes into the VR's in-memory type.
func Decode(v VR, data []byte) (interface{}, error) {
	c, ok := codecs[v]
	if !ok {
		return data, nil
	}
	return c.decode(v, data)
}

// ---- string family ----

func splitValues(v VR, s string) []string {
	if v.IsText() {
		return []string{s}
	}
	return strings.Split(s, "\\")
}

func validateString(v VR, value interface{}) error {
	var values []string
	switch val := value.(type) {
	case string:
		values = splitValues(v, val)
	case []string:
		if len(val) == 0 {
			return fmt.Errorf("%w: empty value list", ErrMultiplicity)
		}
		values = val
	default:
		return fmt.Errorf("%w: VR %s requires a string, got %T", ErrMismatch, v, value)
	}
	if len(values) > 1 && v.IsText() {
		return fmt.Errorf("%w: VR %s is single-valued", ErrMultiplicity, v)
	}
	for _, s := range values {
		if err := validateSingle(v, s); err != nil {
			return err
		}
	}
	return nil
}

// validateSingle checks one value component. Format rules run before the
// generic length cap so a malformed value reports a mismatch, not an
// overflow.
func validateSingle(v VR, s string) error {
	switch v {
	case UI:
		if s == "" {
			return nil
		}
		for _, r := range s {
			if (r < '0' || r > '9') && r != '.' {
				return fmt.Errorf("%w: UID contains invalid character %q", ErrMismatch, r)
			}
		}
		if strings.HasPrefix(s, ".") || strings.HasSuffix(s, ".") || strings.Contains(s, "..") {
			return fmt.Errorf("%w: malformed UID %q", ErrMismatch, s)
		}
	case DA:
		if s == "" {
			return nil
		}
		if len(s) != 8 {
			return fmt.Errorf("%w: DA value %q must be YYYYMMDD", ErrMismatch, s)
		}
		if _, err := strconv.Atoi(s); err != nil {
			return fmt.Errorf("%w: DA value %q must be numeric", ErrMismatch, s)
		}
	case IS:
		if s == "" {
			return nil
		}
		if _, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err != nil {
			return fmt.Errorf("%w: IS value %q is not an integer", ErrMismatch, s)
		}
	case DS:
		if s == "" {
			return nil
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return fmt.Errorf("%w: DS value %q is not a decimal", ErrMismatch, s)
		}
	case CS:
		for _, r := range s {
			valid := (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == ' ' || r == '_'
			if !valid {
				return fmt.Errorf("%w: CS value %q contains invalid character %q", ErrMismatch, s, r)
			}
		}
	case AS:
		if s == "" {
			return nil
		}
		if len(s) != 4 || !strings.ContainsRune("DWMY", rune(s[3])) {
			return fmt.Errorf("%w: AS value %q must be nnnD/W/M/Y", ErrMismatch, s)
		}
	}
	if max := v.MaxLength(); max > 0 && len(s) > max {
		return fmt.Errorf("%w: VR %s value %q exceeds %d bytes", ErrOverflow, v, s, max)
	}
	return nil
}

func encodeString(v VR, value interface{}) ([]byte, error) {
	var s string
	switch val := value.(type) {
	case string:
		s = val
	case []string:
		s = strings.Join(val, "\\")
	}
	b := []byte(s)
	if len(b)%2 != 0 {
		// UID values pad with NUL, everything else with space
		if v == UI {
			b = append(b, 0)
		} else {
			b = append(b, ' ')
		}
	}
	return b, nil
}

func decodeString(v VR, data []byte) (interface{}, error) {
	s := string(data)
	for len(s) > 0 && (s[len(s)-1] == 0 || s[len(s)-1] == ' ') {
		s = s[:len(s)-1]
	}
	return s, nil
}

// ---- binary family ----

func validateUint16(v VR, value interface{}) error {
	switch val := value.(type) {
	case uint16:
		return nil
	case []uint16:
		if len(val) == 0 {
			return fmt.Errorf("%w: empty value list", ErrMultiplicity)
		}
		return nil
	case int:
		if val < 0 || val > math.MaxUint16 {
			return fmt.Errorf("%w: %d out of range for US", ErrOverflow, val)
		}
		return nil
	default:
		return fmt.Errorf("%w: VR US requires uint16, got %T", ErrMismatch, value)
	}
}

func encodeUint16(v VR, value interface{}) ([]byte, error) {
	switch val := value.(type) {
	case uint16:
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, val)
		return b, nil
	case int:
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(val))
		return b, nil
	case []uint16:
		b := make([]byte, len(val)*2)
		for i, u := range val {
			binary.LittleEndian.PutUint16(b[i*2:], u)
		}
		return b, nil
	}
	return nil, fmt.Errorf("%w: VR US requires uint16, got %T", ErrMismatch, value)
}

func decodeUint16(v VR, data []byte) (interface{}, error) {
	if len(data) == 2 {
		return binary.LittleEndian.Uint16(data), nil
	}
	values := make([]uint16, len(data)/2)
	for i := range values {
		values[i] = binary.LittleEndian.Uint16(data[i*2:])
	}
	return values, nil
}

func validateInt16(v VR, value interface{}) error {
	switch val := value.(type) {
	case int16:
		return nil
	case int:
		if val < math.MinInt16 || val > math.MaxInt16 {
			return fmt.Errorf("%w: %d out of range for SS", ErrOverflow, val)
		}
		return nil
	default:
		return fmt.Errorf("%w: VR SS requires int16, got %T", ErrMismatch, value)
	}
}

func encodeInt16(v VR, value interface{}) ([]byte, error) {
	var i int16
	switch val := value.(type) {
	case int16:
		i = val
	case int:
		i = int16(val)
	}
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, uint16(i))
	return b, nil
}

func decodeInt16(v VR, data []byte) (interface{}, error) {
	if len(data) == 2 {
		return int16(binary.LittleEndian.Uint16(data)), nil
	}
	values := make([]int16, len(data)/2)
	for i := range values {
		values[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return values, nil
}

func validateUint32(v VR, value interface{}) error {
	switch val := value.(type) {
	case uint32, []uint32:
		return nil
	case int:
		if val < 0 || val > math.MaxUint32 {
			return fmt.Errorf("%w: %d out of range for UL", ErrOverflow, val)
		}
		return nil
	default:
		return fmt.Errorf("%w: VR UL requires uint32, got %T", ErrMismatch, value)
	}
}

func encodeUint32(v VR, value interface{}) ([]byte, error) {
	switch val := value.(type) {
	case uint32:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, val)
		return b, nil
	case int:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(val))
		return b, nil
	case []uint32:
		b := make([]byte, len(val)*4)
		for i, u := range val {
			binary.LittleEndian.PutUint32(b[i*4:], u)
		}
		return b, nil
	}
	return nil, fmt.Errorf("%w: VR UL requires uint32, got %T", ErrMismatch, value)
}

func decodeUint32(v VR, data []byte) (interface{}, error) {
	if len(data) == 4 {
		return binary.LittleEndian.Uint32(data), nil
	}
	values := make([]uint32, len(data)/4)
	for i := range values {
		values[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return values, nil
}

func validateInt32(v VR, value interface{}) error {
	switch val := value.(type) {
	case int32:
		return nil
	case int:
		if val < math.MinInt32 || val > math.MaxInt32 {
			return fmt.Errorf("%w: %d out of range for SL", ErrOverflow, val)
		}
		return nil
	default:
		return fmt.Errorf("%w: VR SL requires int32, got %T", ErrMismatch, value)
	}
}

func encodeInt32(v VR, value interface{}) ([]byte, error) {
	var i int32
	switch val := value.(type) {
	case int32:
		i = val
	case int:
		i = int32(val)
	}
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(i))
	return b, nil
}

func decodeInt32(v VR, data []byte) (interface{}, error) {
	if len(data) == 4 {
		return int32(binary.LittleEndian.Uint32(data)), nil
	}
	return data, nil
}

func validateFloat32(v VR, value interface{}) error {
	switch value.(type) {
	case float32, []float32:
		return nil
	default:
		return fmt.Errorf("%w: VR FL requires float32, got %T", ErrMismatch, value)
	}
}

func encodeFloat32(v VR, value interface{}) ([]byte, error) {
	switch val := value.(type) {
	case float32:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, math.Float32bits(val))
		return b, nil
	case []float32:
		b := make([]byte, len(val)*4)
		for i, f := range val {
			binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
		}
		return b, nil
	}
	return nil, fmt.Errorf("%w: VR FL requires float32, got %T", ErrMismatch, value)
}

func decodeFloat32(v VR, data []byte) (interface{}, error) {
	if len(data) == 4 {
		return math.Float32frombits(binary.LittleEndian.Uint32(data)), nil
	}
	values := make([]float32, len(data)/4)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return values, nil
}

func validateFloat64(v VR, value interface{}) error {
	switch value.(type) {
	case float64, []float64:
		return nil
	default:
		return fmt.Errorf("%w: VR FD requires float64, got %T", ErrMismatch, value)
	}
}

func encodeFloat64(v VR, value interface{}) ([]byte, error) {
	switch val := value.(type) {
	case float64:
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, math.Float64bits(val))
		return b, nil
	case []float64:
		b := make([]byte, len(val)*8)
		for i, f := range val {
			binary.LittleEndian.PutUint64(b[i*8:], math.Float64bits(f))
		}
		return b, nil
	}
	return nil, fmt.Errorf("%w: VR FD requires float64, got %T", ErrMismatch, value)
}

func decodeFloat64(v VR, data []byte) (interface{}, error) {
	if len(data) == 8 {
		return math.Float64frombits(binary.LittleEndian.Uint64(data)), nil
	}
	values := make([]float64, len(data)/8)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return values, nil
}

func validateBytes(v VR, value interface{}) error {
	switch value.(type) {
	case []byte:
		return nil
	default:
		return fmt.Errorf("%w: VR %s requires raw bytes, got %T", ErrMismatch, v, value)
	}
}

func encodeBytes(v VR, value interface{}) ([]byte, error) {
	b := value.([]byte)
	if len(b)%2 != 0 {
		b = append(append([]byte{}, b...), 0)
	}
	return b, nil
}

func decodeBytes(v VR, data []byte) (interface{}, error) {
	return data, nil
}
