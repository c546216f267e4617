// Package jp2test builds structurally valid JPEG 2000 headers for tests.
// The tile data is filler; only the marker structure is meaningful.
package jp2test

import (
	"bytes"
	"encoding/binary"
)

// Codestream returns a J2K codestream of width x height split into tiles of
// tileW x tileH, where every tile is written as parts tile-parts.
func Codestream(width, height, tileW, tileH, parts int) []byte {
	var b bytes.Buffer
	be := func(v any) { _ = binary.Write(&b, binary.BigEndian, v) }

	be(uint16(0xFF4F)) // SOC
	be(uint16(0xFF51)) // SIZ
	const comps = 3
	be(uint16(38 + 3*comps))
	be(uint16(0)) // Rsiz
	be(uint32(width))
	be(uint32(height))
	be(uint32(0))
	be(uint32(0))
	be(uint32(tileW))
	be(uint32(tileH))
	be(uint32(0))
	be(uint32(0))
	be(uint16(comps))
	for i := 0; i < comps; i++ {
		b.Write([]byte{7, 1, 1})
	}

	// COD with a fixed 12 byte body so the main header has more than SIZ.
	be(uint16(0xFF52))
	be(uint16(12))
	b.Write([]byte{0, 0, 0, 1, 1, 5, 4, 4, 0, 0})

	tilesX := (width + tileW - 1) / tileW
	tilesY := (height + tileH - 1) / tileH
	filler := []byte{0xde, 0xad, 0xbe, 0xef}
	for tile := 0; tile < tilesX*tilesY; tile++ {
		for part := 0; part < parts; part++ {
			be(uint16(0xFF90)) // SOT
			be(uint16(10))
			be(uint16(tile))
			be(uint32(12 + 2 + len(filler)))
			b.WriteByte(byte(part))
			b.WriteByte(byte(parts))
			be(uint16(0xFF93)) // SOD
			b.Write(filler)
		}
	}
	be(uint16(0xFFD9)) // EOC
	return b.Bytes()
}

// File wraps a codestream in the minimal JP2 box structure.
func File(codestream []byte) []byte {
	var b bytes.Buffer
	be := func(v any) { _ = binary.Write(&b, binary.BigEndian, v) }

	b.WriteString("\x00\x00\x00\x0cjP  \r\n\x87\n")
	be(uint32(20))
	b.WriteString("ftypjp2 ")
	be(uint32(0))
	b.WriteString("jp2 ")
	be(uint32(8))
	b.WriteString("jp2h")
	be(uint32(8 + len(codestream)))
	b.WriteString("jp2c")
	b.Write(codestream)
	return b.Bytes()
}
