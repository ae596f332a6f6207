package document

import (
	"compress/zlib"
	"encoding/binary"
	"io"

	"github.com/mogaika/fbx"
	"github.com/pkg/errors"
)

const binaryMagic = "Kaydara FBX Binary  "

// Record headers (end offset, property count, property list size) are 32 bit
// wide before this version and 64 bit wide starting with it.
const wideHeadersVersion = 7500

type positionReader struct {
	r        io.ReadSeeker
	position int64
}

func (r *positionReader) Read(p []byte) (n int, err error) {
	n, err = r.r.Read(p)
	r.position += int64(n)
	return n, err
}

func (r *positionReader) SkipTo(pos int64) error {
	if pos < r.position {
		return errors.Errorf("Cannot rewind from %v to %v", r.position, pos)
	}
	if _, err := r.r.Seek(pos, io.SeekStart); err != nil {
		return err
	}
	r.position = pos
	return nil
}

type binaryParser struct {
	r       *positionReader
	version uint32
	err     error
}

func (p *binaryParser) read(v interface{}) error {
	if p.err == nil {
		p.err = binary.Read(p.r, binary.LittleEndian, v)
	}
	return p.err
}

func (p *binaryParser) readUint8() uint8 {
	var v uint8
	p.read(&v)
	return v
}

func (p *binaryParser) readUint32() uint32 {
	var v uint32
	p.read(&v)
	return v
}

func (p *binaryParser) readUint64() uint64 {
	var v uint64
	p.read(&v)
	return v
}

// readOffset reads a record header field honoring the version-dependent width.
func (p *binaryParser) readOffset() uint64 {
	if p.version >= wideHeadersVersion {
		return p.readUint64()
	}
	return uint64(p.readUint32())
}

func (p *binaryParser) readString(n uint32) string {
	buf := make([]byte, n)
	p.read(buf)
	return string(buf)
}

func (p *binaryParser) readArray(typ uint8) interface{} {
	count := p.readUint32()
	encoding := p.readUint32()
	size := p.readUint32()

	var buf interface{}
	switch typ {
	case 'b':
		buf = make([]byte, count)
	case 'i':
		buf = make([]int32, count)
	case 'l':
		buf = make([]int64, count)
	case 'f':
		buf = make([]float32, count)
	case 'd':
		buf = make([]float64, count)
	default:
		p.err = errors.Errorf("Unknown array property type %q", typ)
		return nil
	}

	if encoding == 0 {
		p.read(buf)
		return buf
	}

	next := p.r.position + int64(size)
	zr, err := zlib.NewReader(io.LimitReader(p.r, int64(size)))
	if err != nil {
		p.err = errors.Wrapf(err, "Failed to open compressed array")
		return buf
	}
	defer zr.Close()
	if err := binary.Read(zr, binary.LittleEndian, buf); p.err == nil {
		p.err = err
	}
	if p.err == nil {
		p.err = p.r.SkipTo(next)
	}
	return buf
}

func (p *binaryParser) readProperty() interface{} {
	typ := p.readUint8()
	switch typ {
	case 'C', 'B':
		return p.readUint8() != 0
	case 'Y':
		var v int16
		p.read(&v)
		return v
	case 'I':
		var v int32
		p.read(&v)
		return v
	case 'L':
		var v int64
		p.read(&v)
		return v
	case 'F':
		var v float32
		p.read(&v)
		return v
	case 'D':
		var v float64
		p.read(&v)
		return v
	case 'S':
		return p.readString(p.readUint32())
	case 'R':
		buf := make([]byte, p.readUint32())
		p.read(buf)
		return buf
	case 'b', 'i', 'l', 'f', 'd':
		return p.readArray(typ)
	}
	p.err = errors.Errorf("Unknown property type %q", typ)
	return nil
}

func (p *binaryParser) readNode() *fbx.Node {
	end := p.readOffset()
	propCount := p.readOffset()
	propSize := p.readOffset()
	name := p.readString(uint32(p.readUint8()))
	if p.err != nil {
		return nil
	}

	// Null record terminates a sibling list.
	if end == 0 && propCount == 0 && propSize == 0 && name == "" {
		return nil
	}

	n := &fbx.Node{Name: name}
	for i := uint64(0); i < propCount && p.err == nil; i++ {
		n.Properties = append(n.Properties, p.readProperty())
	}
	if p.err != nil {
		return nil
	}

	for p.r.position < int64(end) && p.err == nil {
		if child := p.readNode(); child != nil {
			n.Nodes = append(n.Nodes, child)
		}
	}
	if p.err == nil {
		p.err = p.r.SkipTo(int64(end))
	}
	if p.err != nil {
		return nil
	}
	return n
}

// parseBinary reads a binary encoded document into a node tree. The caller
// already checked the magic.
func parseBinary(r io.ReadSeeker) (*fbx.Node, uint32, error) {
	p := &binaryParser{r: &positionReader{r: r}}
	if p.readString(uint32(len(binaryMagic))) != binaryMagic {
		return nil, 0, errors.Errorf("Not a binary fbx document")
	}
	// magic is followed by [0x00 0x1a 0x00] and the format version
	if err := p.r.SkipTo(23); err != nil {
		return nil, 0, err
	}
	p.version = p.readUint32()

	root := &fbx.Node{}
	for p.err == nil {
		node := p.readNode()
		if node == nil {
			break
		}
		root.Nodes = append(root.Nodes, node)
	}
	// the top level list must end with its null record before the footer; an
	// EOF getting here means the file was cut off
	if p.err != nil {
		return nil, p.version, errors.Wrapf(p.err, "Failed to parse binary document (version %v)", p.version)
	}
	return root, p.version, nil
}
