package fbx

import (
	"bytes"
	"io"
	"os"
)

func Load(path string) (*Document, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return Parse(r)
}

func Parse(r io.Reader) (*Document, error) {
	p := binaryParser{r: &positionReader{r: r}}
	root, err := p.Parse()
	if err != nil {
		return nil, err
	}
	return BuildDocument(root, p.version)
}

func ParseBytes(data []byte) (*Document, error) {
	return Parse(bytes.NewReader(data))
}
