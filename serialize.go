package binui

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/binui/text"
)

// Style serialization uses a little-endian binary form: a 4-byte
// magic, a 2-byte version, a record count, then per record the bin id,
// parent id and a length-prefixed style blob. Within a blob each set
// field appears as a one-byte tag followed by its payload; absent
// fields are simply omitted.

var styleMagic = [4]byte{'B', 'A', 'S', '1'}

// StyleVersion is the current serialization format version.
const StyleVersion uint16 = 1

// ErrBadStyleData reports bytes that are not a valid style graph.
var ErrBadStyleData = errors.New("binui: malformed style data")

// StyleRecord pairs a bin's ids with its style for serialization.
type StyleRecord struct {
	ID     BinID
	Parent BinID
	Style  BinStyle
}

const (
	tagPosition uint8 = iota + 1
	tagZIndex
	tagTop
	tagBottom
	tagLeft
	tagRight
	tagWidth
	tagHeight
	tagPadT
	tagPadB
	tagPadL
	tagPadR
	tagBorderSizeT
	tagBorderSizeB
	tagBorderSizeL
	tagBorderSizeR
	tagBorderColorT
	tagBorderColorB
	tagBorderColorL
	tagBorderColorR
	tagBackColor
	tagText
	tagTextSize
	tagTextColor
	tagTextWrap
	tagFontFamily
	tagFontWeight
	tagOverflow
	tagOpacity
	tagFocusable
)

// EncodeStyles serializes style records to the versioned binary form.
func EncodeStyles(records []StyleRecord) []byte {
	buf := make([]byte, 0, 64+len(records)*64)
	buf = append(buf, styleMagic[:]...)
	buf = binary.LittleEndian.AppendUint16(buf, StyleVersion)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(records)))

	for _, rec := range records {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(rec.ID))
		buf = binary.LittleEndian.AppendUint64(buf, uint64(rec.Parent))
		blob := encodeStyle(&rec.Style)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(blob)))
		buf = append(buf, blob...)
	}
	return buf
}

// DecodeStyles parses the versioned binary form back into records.
func DecodeStyles(data []byte) ([]StyleRecord, error) {
	if len(data) < 10 || [4]byte(data[:4]) != styleMagic {
		return nil, fmt.Errorf("%w: missing magic", ErrBadStyleData)
	}
	version := binary.LittleEndian.Uint16(data[4:6])
	if version != StyleVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadStyleData, version)
	}
	count := binary.LittleEndian.Uint32(data[6:10])
	data = data[10:]

	records := make([]StyleRecord, 0, count)
	for i := uint32(0); i < count; i++ {
		if len(data) < 20 {
			return nil, fmt.Errorf("%w: truncated record %d", ErrBadStyleData, i)
		}
		var rec StyleRecord
		rec.ID = BinID(binary.LittleEndian.Uint64(data[0:8]))
		rec.Parent = BinID(binary.LittleEndian.Uint64(data[8:16]))
		blobLen := binary.LittleEndian.Uint32(data[16:20])
		data = data[20:]
		if uint32(len(data)) < blobLen {
			return nil, fmt.Errorf("%w: truncated style blob %d", ErrBadStyleData, i)
		}
		style, err := decodeStyle(data[:blobLen])
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		rec.Style = *style
		data = data[blobLen:]
		records = append(records, rec)
	}
	return records, nil
}

func encodeStyle(s *BinStyle) []byte {
	var b []byte

	putF32 := func(tag uint8, p *float32) {
		if p != nil {
			b = append(b, tag)
			b = binary.LittleEndian.AppendUint32(b, math.Float32bits(*p))
		}
	}
	putColor := func(tag uint8, c Color) {
		if !c.IsTransparent() {
			b = append(b, tag)
			for _, ch := range [4]float64{c.R, c.G, c.B, c.A} {
				b = binary.LittleEndian.AppendUint64(b, math.Float64bits(ch))
			}
		}
	}

	if s.Position != PositionWindow {
		b = append(b, tagPosition, byte(s.Position))
	}
	if s.ZIndex != nil {
		b = append(b, tagZIndex)
		b = binary.LittleEndian.AppendUint32(b, uint32(*s.ZIndex))
	}
	putF32(tagTop, s.Top)
	putF32(tagBottom, s.Bottom)
	putF32(tagLeft, s.Left)
	putF32(tagRight, s.Right)
	putF32(tagWidth, s.Width)
	putF32(tagHeight, s.Height)
	putF32(tagPadT, s.PadT)
	putF32(tagPadB, s.PadB)
	putF32(tagPadL, s.PadL)
	putF32(tagPadR, s.PadR)
	putF32(tagBorderSizeT, s.BorderSizeT)
	putF32(tagBorderSizeB, s.BorderSizeB)
	putF32(tagBorderSizeL, s.BorderSizeL)
	putF32(tagBorderSizeR, s.BorderSizeR)
	putColor(tagBorderColorT, s.BorderColorT)
	putColor(tagBorderColorB, s.BorderColorB)
	putColor(tagBorderColorL, s.BorderColorL)
	putColor(tagBorderColorR, s.BorderColorR)
	putColor(tagBackColor, s.BackColor)

	if s.Text != "" {
		b = append(b, tagText)
		b = binary.LittleEndian.AppendUint32(b, uint32(len(s.Text)))
		b = append(b, s.Text...)
	}
	putF32(tagTextSize, s.TextSize)
	putColor(tagTextColor, s.TextColor)
	if s.TextWrap != 0 {
		b = append(b, tagTextWrap, byte(s.TextWrap))
	}
	if s.FontFamily != "" {
		b = append(b, tagFontFamily)
		b = binary.LittleEndian.AppendUint32(b, uint32(len(s.FontFamily)))
		b = append(b, s.FontFamily...)
	}
	if s.FontWeight != nil {
		b = append(b, tagFontWeight)
		b = binary.LittleEndian.AppendUint32(b, uint32(*s.FontWeight))
	}
	if s.Overflow != OverflowVisible {
		b = append(b, tagOverflow, byte(s.Overflow))
	}
	putF32(tagOpacity, s.Opacity)
	if s.Focusable {
		b = append(b, tagFocusable, 1)
	}
	return b
}

func decodeStyle(b []byte) (*BinStyle, error) {
	s := &BinStyle{}

	readF32 := func() (*float32, error) {
		if len(b) < 4 {
			return nil, ErrBadStyleData
		}
		v := math.Float32frombits(binary.LittleEndian.Uint32(b))
		b = b[4:]
		return &v, nil
	}
	readColor := func() (Color, error) {
		if len(b) < 32 {
			return Color{}, ErrBadStyleData
		}
		var c Color
		c.R = math.Float64frombits(binary.LittleEndian.Uint64(b[0:8]))
		c.G = math.Float64frombits(binary.LittleEndian.Uint64(b[8:16]))
		c.B = math.Float64frombits(binary.LittleEndian.Uint64(b[16:24]))
		c.A = math.Float64frombits(binary.LittleEndian.Uint64(b[24:32]))
		b = b[32:]
		return c, nil
	}
	readString := func() (string, error) {
		if len(b) < 4 {
			return "", ErrBadStyleData
		}
		n := binary.LittleEndian.Uint32(b)
		b = b[4:]
		if uint32(len(b)) < n {
			return "", ErrBadStyleData
		}
		v := string(b[:n])
		b = b[n:]
		return v, nil
	}
	readByte := func() (byte, error) {
		if len(b) < 1 {
			return 0, ErrBadStyleData
		}
		v := b[0]
		b = b[1:]
		return v, nil
	}

	var err error
	for len(b) > 0 {
		tag := b[0]
		b = b[1:]
		switch tag {
		case tagPosition:
			var v byte
			if v, err = readByte(); err == nil {
				s.Position = Position(v)
			}
		case tagZIndex:
			if len(b) < 4 {
				err = ErrBadStyleData
				break
			}
			v := int32(binary.LittleEndian.Uint32(b))
			b = b[4:]
			s.ZIndex = &v
		case tagTop:
			s.Top, err = readF32()
		case tagBottom:
			s.Bottom, err = readF32()
		case tagLeft:
			s.Left, err = readF32()
		case tagRight:
			s.Right, err = readF32()
		case tagWidth:
			s.Width, err = readF32()
		case tagHeight:
			s.Height, err = readF32()
		case tagPadT:
			s.PadT, err = readF32()
		case tagPadB:
			s.PadB, err = readF32()
		case tagPadL:
			s.PadL, err = readF32()
		case tagPadR:
			s.PadR, err = readF32()
		case tagBorderSizeT:
			s.BorderSizeT, err = readF32()
		case tagBorderSizeB:
			s.BorderSizeB, err = readF32()
		case tagBorderSizeL:
			s.BorderSizeL, err = readF32()
		case tagBorderSizeR:
			s.BorderSizeR, err = readF32()
		case tagBorderColorT:
			s.BorderColorT, err = readColor()
		case tagBorderColorB:
			s.BorderColorB, err = readColor()
		case tagBorderColorL:
			s.BorderColorL, err = readColor()
		case tagBorderColorR:
			s.BorderColorR, err = readColor()
		case tagBackColor:
			s.BackColor, err = readColor()
		case tagText:
			s.Text, err = readString()
		case tagTextSize:
			s.TextSize, err = readF32()
		case tagTextColor:
			s.TextColor, err = readColor()
		case tagTextWrap:
			var v byte
			if v, err = readByte(); err == nil {
				s.TextWrap = text.Wrap(v)
			}
		case tagFontFamily:
			s.FontFamily, err = readString()
		case tagFontWeight:
			if len(b) < 4 {
				err = ErrBadStyleData
				break
			}
			v := int32(binary.LittleEndian.Uint32(b))
			b = b[4:]
			s.FontWeight = &v
		case tagOverflow:
			var v byte
			if v, err = readByte(); err == nil {
				s.Overflow = Overflow(v)
			}
		case tagOpacity:
			s.Opacity, err = readF32()
		case tagFocusable:
			var v byte
			if v, err = readByte(); err == nil {
				s.Focusable = v != 0
			}
		default:
			return nil, fmt.Errorf("%w: unknown tag %d", ErrBadStyleData, tag)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: tag %d payload", ErrBadStyleData, tag)
		}
	}
	return s, nil
}
