package mmd

import (
	"encoding/binary"
	"io"
)

type baseWriter struct {
	w   io.Writer
	err error
}

func (p *baseWriter) write(v interface{}) error {
	if p.err == nil {
		p.err = binary.Write(p.w, binary.LittleEndian, v)
	}
	return p.err
}

func (p *baseWriter) writeUint8(v uint8) {
	p.write(&v)
}

func (p *baseWriter) writeInt(v int) {
	vv := uint32(v)
	p.write(&vv)
}

func (p *baseWriter) writeFloat(v float32) {
	p.write(&v)
}
