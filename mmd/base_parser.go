package mmd

import (
	"encoding/binary"
	"io"
)

type baseParser struct {
	r   io.Reader
	err error
}

func (p *baseParser) read(v interface{}) error {
	if p.err == nil {
		p.err = binary.Read(p.r, binary.LittleEndian, v)
	}
	return p.err
}

func (p *baseParser) readUint8() uint8 {
	var v uint8
	p.read(&v)
	return v
}

func (p *baseParser) readInt() int {
	var v uint32
	p.read(&v)
	return int(v)
}

func (p *baseParser) readUint32() uint32 {
	var v uint32
	p.read(&v)
	return v
}

func (p *baseParser) readFloat() float32 {
	var v float32
	p.read(&v)
	return v
}
