package dicom

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	itemTag     uint32 = 0xFFFEE000 // (FFFE,E000)
	seqDelimTag uint32 = 0xFFFEE0DD // (FFFE,E0DD)
)

// tag plus 32 bit length
const itemHeaderSz = 8

// ErrBadEncapsulation reports encapsulated pixel data that is not a valid
// item sequence.
var ErrBadEncapsulation = errors.New("dicom: bad encapsulated pixel data")

// Encapsulate wraps compressed frames as the value of an encapsulated Pixel
// Data element: a basic offset table, one item per frame padded to an even
// length and a sequence delimiter.
func Encapsulate(frames [][]byte) []byte {
	var buf bytes.Buffer
	offsets := make([]uint32, len(frames))
	var off uint32
	for i, f := range frames {
		offsets[i] = off
		off += itemHeaderSz + uint32(len(f)+len(f)%2)
	}
	if len(frames) > 1 {
		writeItemHeader(&buf, itemTag, uint32(4*len(offsets)))
		for _, o := range offsets {
			binary.Write(&buf, binary.LittleEndian, o)
		}
	} else {
		writeItemHeader(&buf, itemTag, 0)
	}
	for _, f := range frames {
		writeItemHeader(&buf, itemTag, uint32(len(f)+len(f)%2))
		buf.Write(f)
		if len(f)%2 != 0 {
			buf.WriteByte(0)
		}
	}
	writeItemHeader(&buf, seqDelimTag, 0)
	return buf.Bytes()
}

func writeItemHeader(buf *bytes.Buffer, t uint32, length uint32) {
	binary.Write(buf, binary.LittleEndian, uint16(t>>16))
	binary.Write(buf, binary.LittleEndian, uint16(t))
	binary.Write(buf, binary.LittleEndian, length)
}

// Fragments splits encapsulated pixel data back into its frames. The basic
// offset table is skipped and one fragment per frame is assumed.
func Fragments(data []byte) ([][]byte, error) {
	var frames [][]byte
	pos := 0
	for first := true; ; first = false {
		if pos+itemHeaderSz > len(data) {
			return nil, fmt.Errorf("%w: truncated at %d", ErrBadEncapsulation, pos)
		}
		t := uint32(binary.LittleEndian.Uint16(data[pos:]))<<16 | uint32(binary.LittleEndian.Uint16(data[pos+2:]))
		length := int(binary.LittleEndian.Uint32(data[pos+4:]))
		pos += itemHeaderSz
		if t == seqDelimTag {
			return frames, nil
		}
		if t != itemTag {
			return nil, fmt.Errorf("%w: tag %08x at %d", ErrBadEncapsulation, t, pos-itemHeaderSz)
		}
		if length > len(data)-pos {
			return nil, fmt.Errorf("%w: item of %d bytes at %d", ErrBadEncapsulation, length, pos)
		}
		if !first {
			frames = append(frames, data[pos:pos+length])
		}
		pos += length
	}
}
