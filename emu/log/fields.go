package log

import (
	"encoding/hex"
	"image"
	"strconv"
	"strings"
	"time"
)

type FieldType int

const (
	FieldTypeUnknown FieldType = iota
	FieldTypeBool
	FieldTypeString
	FieldTypeHex8
	FieldTypeHex16
	FieldTypeHex32
	FieldTypeInt
	FieldTypeUint
	FieldTypeError
	FieldTypeDuration
	FieldTypeStringer
	FieldTypeBlob
	FieldTypePoint
)

// number of digits of hexadecimal fields
var hexDigits = [...]int{
	FieldTypeHex8:  2,
	FieldTypeHex16: 4,
	FieldTypeHex32: 8,
}

type ZField struct {
	Type FieldType
	Key  string

	// Only one of these is populated, depending on Type.
	String    string
	Integer   uint64
	Duration  time.Duration
	Error     error
	Interface any
	Boolean   bool
	Blob      []byte
	Point     image.Point
}

func (f *ZField) Value() string {
	switch f.Type {
	case FieldTypeBool:
		return strconv.FormatBool(f.Boolean)
	case FieldTypeString:
		return f.String
	case FieldTypeUint:
		return strconv.FormatUint(f.Integer, 10)
	case FieldTypeInt:
		return strconv.FormatInt(int64(f.Integer), 10)
	case FieldTypeHex8, FieldTypeHex16, FieldTypeHex32:
		digits := strconv.FormatUint(f.Integer, 16)
		if pad := hexDigits[f.Type] - len(digits); pad > 0 {
			digits = strings.Repeat("0", pad) + digits
		}
		return "0x" + digits
	case FieldTypeError:
		if f.Error == nil {
			return "<nil>"
		}
		return f.Error.Error()
	case FieldTypeDuration:
		return f.Duration.String()
	case FieldTypeStringer:
		return f.Interface.(interface{ String() string }).String()
	case FieldTypeBlob:
		return hex.Dump(f.Blob)
	case FieldTypePoint:
		return "(" + strconv.Itoa(f.Point.X) + "," + strconv.Itoa(f.Point.Y) + ")"
	}
	return ""
}
