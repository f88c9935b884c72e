// internal/driver/escpos/command.go
package escpos

import "github.com/Softbalance/equipment/internal/model"

// escPos holds the command prefixes understood by Posiflex and Atol
// receipt printers.
var escPos = struct {
	SelectCodePage  []byte // + code page byte
	SelectCharset   []byte // + charset byte
	PrintMode       []byte // + font byte
	Align           []byte // + alignment byte
	LineFeed        []byte
	CutPartial      []byte
	DisableASB      []byte
	CharsetUSA      byte
	FontBold        byte
	FontDoubleHigh  byte
	FontUnderline   byte
	AlignLeftByte   byte
	AlignCenterByte byte
	AlignRightByte  byte
}{
	SelectCodePage: []byte{0x1B, 0x74},       // ESC t n
	SelectCharset:  []byte{0x1B, 0x52},       // ESC R n
	PrintMode:      []byte{0x1B, 0x21},       // ESC ! n
	Align:          []byte{0x1B, 0x61},       // ESC a n
	LineFeed:       []byte{0x0A},             // LF
	CutPartial:     []byte{0x1D, 0x56, 0x01}, // GS V 1
	DisableASB:     []byte{0x1D, 0x61, 0x00}, // GS a 0, also flushes the buffer

	CharsetUSA:     0x00,
	FontBold:       0x08,
	FontDoubleHigh: 0x20,
	FontUnderline:  0x80,

	AlignLeftByte:   0x00,
	AlignCenterByte: 0x01,
	AlignRightByte:  0x02,
}

// preamble selects the code page and the USA character set.
func preamble(codePage int) []byte {
	out := append([]byte{}, escPos.SelectCodePage...)
	out = append(out, byte(codePage))
	out = append(out, escPos.SelectCharset...)
	return append(out, escPos.CharsetUSA)
}

// postamble turns automatic status back off.
func postamble() []byte {
	return append([]byte{}, escPos.DisableASB...)
}

func fontByte(params model.Parameters) byte {
	var font byte
	if model.BoolValue(params.Bold) {
		font |= escPos.FontBold
	}
	if model.BoolValue(params.DoubleHeight) {
		font |= escPos.FontDoubleHigh
	}
	if model.BoolValue(params.Underline) {
		font |= escPos.FontUnderline
	}
	return font
}

func alignByte(alignment model.Alignment) byte {
	switch alignment {
	case model.AlignCenter:
		return escPos.AlignCenterByte
	case model.AlignRight:
		return escPos.AlignRightByte
	default:
		return escPos.AlignLeftByte
	}
}

// textLine builds ESC ! font, ESC a align, the encoded text and LF.
func textLine(params model.Parameters, encoded []byte) []byte {
	out := make([]byte, 0, len(encoded)+7)
	out = append(out, escPos.PrintMode...)
	out = append(out, fontByte(params))
	out = append(out, escPos.Align...)
	out = append(out, alignByte(params.Align()))
	out = append(out, encoded...)
	return append(out, escPos.LineFeed...)
}
