package mmd

import (
	"encoding/binary"
	"io"
)

// baseParser keeps the first read error; later reads become no-ops.
type baseParser struct {
	r   io.Reader
	err error
}

func (p *baseParser) read(v interface{}) error {
	if p.err != nil {
		return p.err
	}
	p.err = binary.Read(p.r, binary.LittleEndian, v)
	return p.err
}

func (p *baseParser) readUint8() uint8 {
	var v uint8
	p.read(&v)
	return v
}

func (p *baseParser) readUint16() uint16 {
	var v uint16
	p.read(&v)
	return v
}

func (p *baseParser) readInt() int {
	var v uint32
	p.read(&v)
	return int(v)
}

func (p *baseParser) readFloat() float32 {
	var v float32
	p.read(&v)
	return v
}

func (p *baseParser) readVUInt(sz byte) int {
	if sz == 1 {
		var v uint8
		p.read(&v)
		return int(v)
	}
	if sz == 2 {
		var v uint16
		p.read(&v)
		return int(v)
	}
	if sz == 4 {
		var v uint32
		p.read(&v)
		return int(v)
	}
	return 0
}

func (p *baseParser) readVInt(sz byte) int {
	if sz == 1 {
		var v int8
		p.read(&v)
		return int(v)
	}
	if sz == 2 {
		var v int16
		p.read(&v)
		return int(v)
	}
	if sz == 4 {
		var v int32
		p.read(&v)
		return int(v)
	}
	return 0
}

// fail records err unless an earlier error exists.
func (p *baseParser) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}
