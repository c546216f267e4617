// Package jp2 reads the structure of JPEG 2000 files without decoding any
// pixels. It walks the JP2 box list down to the contiguous codestream and
// then the codestream's main header and tile-part headers, which is enough
// to tell whether a file is split into independently coded tile-parts.
package jp2

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// Marker is a JPEG 2000 codestream marker code (ISO/IEC 15444-1 Annex A).
type Marker uint16

const (
	SOC Marker = 0xFF4F // start of codestream
	SIZ Marker = 0xFF51 // image and tile size
	SOT Marker = 0xFF90 // start of tile-part
	SOD Marker = 0xFF93 // start of data
	EOC Marker = 0xFFD9 // end of codestream
)

var (
	ErrNotJP2    = errors.New("not a JPEG 2000 file")
	ErrTruncated = errors.New("truncated JPEG 2000 codestream")
)

var signatureBox = []byte("\x00\x00\x00\x0cjP  \r\n\x87\n")

// Layout summarises a codestream.
type Layout struct {
	Width, Height int
	Components    int
	TileWidth     int
	TileHeight    int
	TilesX        int
	TilesY        int
	// TileParts counts SOT segments seen.
	TileParts int
	// PartsPerTile maps a tile index to the number of its tile-parts.
	PartsPerTile map[int]int
	// Declared is the largest TNsot value found (0 when never declared).
	Declared int
}

// Tiles is the size of the tile grid.
func (l Layout) Tiles() int { return l.TilesX * l.TilesY }

// MaxPartsPerTile returns the largest number of tile-parts any tile uses.
func (l Layout) MaxPartsPerTile() int {
	most := 0
	for _, n := range l.PartsPerTile {
		if n > most {
			most = n
		}
	}
	if l.Declared > most {
		most = l.Declared
	}
	return most
}

// Segmented reports whether at least one tile is spread over more than one
// tile-part, meaning tiles cannot be decoded one by one as they are read.
func (l Layout) Segmented() bool {
	return l.MaxPartsPerTile() > 1 || l.TileParts > l.Tiles()
}

// Inspect parses either a JP2 file or a raw J2K codestream.
func Inspect(data []byte) (Layout, error) {
	cs, err := Codestream(data)
	if err != nil {
		return Layout{}, err
	}
	return parseCodestream(cs)
}

// Codestream returns the contiguous codestream inside data. Raw J2K input
// is returned as is.
func Codestream(data []byte) ([]byte, error) {
	if len(data) >= 2 && Marker(binary.BigEndian.Uint16(data)) == SOC {
		return data, nil
	}
	if !bytes.HasPrefix(data, signatureBox) {
		return nil, ErrNotJP2
	}
	pos := 0
	for pos+8 <= len(data) {
		length := uint64(binary.BigEndian.Uint32(data[pos:]))
		boxType := string(data[pos+4 : pos+8])
		header := uint64(8)
		switch length {
		case 0:
			length = uint64(len(data) - pos)
		case 1:
			if pos+16 > len(data) {
				return nil, ErrTruncated
			}
			length = binary.BigEndian.Uint64(data[pos+8:])
			header = 16
		}
		if length < header || uint64(pos)+length > uint64(len(data)) {
			return nil, errors.Wrapf(ErrTruncated, "box %q", boxType)
		}
		if boxType == "jp2c" {
			return data[uint64(pos)+header : uint64(pos)+length], nil
		}
		pos += int(length)
	}
	return nil, errors.Wrap(ErrNotJP2, "no contiguous codestream box")
}

type reader struct {
	buf []byte
	pos int
}

func (r *reader) need(n int) error {
	if r.pos+n > len(r.buf) {
		return ErrTruncated
	}
	return nil
}

func (r *reader) u8() uint8 {
	v := r.buf[r.pos]
	r.pos++
	return v
}

func (r *reader) u16() uint16 {
	v := binary.BigEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v
}

func (r *reader) u32() uint32 {
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

func parseCodestream(cs []byte) (Layout, error) {
	r := &reader{buf: cs}
	if err := r.need(4); err != nil {
		return Layout{}, err
	}
	if Marker(r.u16()) != SOC {
		return Layout{}, errors.Wrap(ErrNotJP2, "missing SOC marker")
	}
	if Marker(r.u16()) != SIZ {
		return Layout{}, errors.Wrap(ErrNotJP2, "SIZ must follow SOC")
	}

	// Lsiz Rsiz Xsiz Ysiz XOsiz YOsiz XTsiz YTsiz XTOsiz YTOsiz Csiz
	if err := r.need(2 + 2 + 8*4 + 2); err != nil {
		return Layout{}, err
	}
	lsiz := int(r.u16())
	start := r.pos - 2
	r.u16()
	xsiz, ysiz := int(r.u32()), int(r.u32())
	xo, yo := int(r.u32()), int(r.u32())
	xt, yt := int(r.u32()), int(r.u32())
	xto, yto := int(r.u32()), int(r.u32())
	csiz := int(r.u16())
	if xsiz <= xo || ysiz <= yo || xt == 0 || yt == 0 {
		return Layout{}, errors.Errorf("invalid SIZ geometry %dx%d offset %d,%d tile %dx%d", xsiz, ysiz, xo, yo, xt, yt)
	}
	r.pos = start + lsiz
	if err := r.need(0); err != nil {
		return Layout{}, err
	}

	l := Layout{
		Width:        xsiz - xo,
		Height:       ysiz - yo,
		Components:   csiz,
		TileWidth:    xt,
		TileHeight:   yt,
		TilesX:       ceilDiv(xsiz-xto, xt),
		TilesY:       ceilDiv(ysiz-yto, yt),
		PartsPerTile: map[int]int{},
	}

	// Skip the remaining main header segments up to the first SOT.
	for {
		if err := r.need(4); err != nil {
			return Layout{}, err
		}
		m := Marker(r.u16())
		if m == SOT {
			r.pos -= 2
			break
		}
		if m == EOC {
			return l, nil
		}
		seg := int(r.u16())
		if seg < 2 {
			return Layout{}, errors.Errorf("marker %#04x has invalid length %d", uint16(m), seg)
		}
		r.pos += seg - 2
	}

	for {
		if err := r.need(2); err != nil {
			return Layout{}, err
		}
		sot := r.pos
		m := Marker(r.u16())
		if m == EOC {
			break
		}
		if m != SOT {
			return Layout{}, errors.Errorf("expected SOT at offset %d, found %#04x", sot, uint16(m))
		}
		if err := r.need(10); err != nil {
			return Layout{}, err
		}
		r.u16() // Lsot
		isot := int(r.u16())
		psot := int(r.u32())
		r.u8() // TPsot
		tnsot := int(r.u8())

		l.TileParts++
		l.PartsPerTile[isot]++
		if tnsot > l.Declared {
			l.Declared = tnsot
		}
		if psot == 0 {
			// Last tile-part runs to EOC.
			break
		}
		if psot < 12 {
			return Layout{}, errors.Errorf("tile-part at offset %d has invalid length %d", sot, psot)
		}
		r.pos = sot + psot
		if r.pos >= len(cs) {
			break
		}
	}
	return l, nil
}
