package encode

import (
	"fmt"
	"math"

	"github.com/leftmike/chartdata/sql"
)

const (
	boolValueTag    = 1
	int64ValueTag   = 2
	float64ValueTag = 3
	stringValueTag  = 4
	bytesValueTag   = 5
	// Value tags must be less than 16.

	// Column numbers less than colNumVarint are stored in the high nibble of the tag byte.
	colNumVarint = 15

	maxColumns = 1 << 16
)

func encodeColNumValueTag(buf []byte, colNum int, tag byte) []byte {
	if colNum < colNumVarint {
		buf = append(buf, byte(colNum<<4)|tag)
	} else {
		buf = append(buf, byte(colNumVarint<<4)|tag)
		buf = EncodeVarint(buf, uint64(colNum))
	}
	return buf
}

// EncodeRowValue encodes the number of values followed by each non-NULL value tagged with its
// column number.
func EncodeRowValue(row []sql.Value) []byte {
	buf := EncodeVarint(nil, uint64(len(row)))
	for num, val := range row {
		if val == nil {
			continue
		}
		switch val := val.(type) {
		case sql.BoolValue:
			buf = encodeColNumValueTag(buf, num, boolValueTag)
			if val {
				buf = append(buf, 1)
			} else {
				buf = append(buf, 0)
			}
		case sql.StringValue:
			buf = encodeColNumValueTag(buf, num, stringValueTag)
			buf = EncodeVarint(buf, uint64(len(val)))
			buf = append(buf, val...)
		case sql.BytesValue:
			buf = encodeColNumValueTag(buf, num, bytesValueTag)
			buf = EncodeVarint(buf, uint64(len(val)))
			buf = append(buf, val...)
		case sql.Float64Value:
			buf = encodeColNumValueTag(buf, num, float64ValueTag)
			buf = EncodeUint64(buf, math.Float64bits(float64(val)))
		case sql.Int64Value:
			buf = encodeColNumValueTag(buf, num, int64ValueTag)
			buf = EncodeZigzag64(buf, int64(val))
		default:
			panic(fmt.Sprintf("unexpected type for sql.Value: %T: %v", val, val))
		}
	}
	return buf
}

func DecodeRowValue(buf []byte) ([]sql.Value, bool) {
	var ok bool
	var u uint64

	buf, u, ok = DecodeVarint(buf)
	if !ok || u > maxColumns {
		return nil, false
	}
	dest := make([]sql.Value, u)

	for len(buf) > 0 {
		tag := buf[0] & 0x0F
		num := int(buf[0] >> 4)
		buf = buf[1:]
		if num == colNumVarint {
			buf, u, ok = DecodeVarint(buf)
			if !ok {
				return nil, false
			}
			if u >= uint64(len(dest)) {
				return nil, false
			}
			num = int(u)
		}
		if num >= len(dest) {
			return nil, false
		}

		var val sql.Value
		switch tag {
		case boolValueTag:
			if len(buf) < 1 {
				return nil, false
			}
			val = sql.BoolValue(buf[0] != 0)
			buf = buf[1:]
		case stringValueTag, bytesValueTag:
			buf, u, ok = DecodeVarint(buf)
			if !ok || uint64(len(buf)) < u {
				return nil, false
			}
			if tag == stringValueTag {
				val = sql.StringValue(buf[:u])
			} else {
				val = sql.BytesValue(append(make([]byte, 0, u), buf[:u]...))
			}
			buf = buf[u:]
		case float64ValueTag:
			buf, u, ok = DecodeUint64(buf)
			if !ok {
				return nil, false
			}
			val = sql.Float64Value(math.Float64frombits(u))
		case int64ValueTag:
			var n int64
			buf, n, ok = DecodeZigzag64(buf)
			if !ok {
				return nil, false
			}
			val = sql.Int64Value(n)
		default:
			return nil, false
		}

		dest[num] = val
	}

	return dest, true
}
