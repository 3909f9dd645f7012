package importer

import (
	"compress/bzip2"
	"compress/gzip"
	"compress/zlib"
	"io"

	"github.com/krolaw/zipstream"
	"github.com/xi2/xz"
)

type DataType byte

const (
	DataTypeInvalid DataType = iota
	DataTypeNoCompression
	DataTypeGzip
	DataTypeZip
	DataTypeXZ
	DataTypeZ
	DataTypeBZip2
)

var byteCodeSigs = map[DataType][]byte{
	DataTypeGzip:  {0x1f, 0x8b, 0x08},
	DataTypeZip:   {0x50, 0x4b, 0x03, 0x04},
	DataTypeXZ:    {0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00},
	DataTypeZ:     {0x1f, 0x9d},
	DataTypeBZip2: {0x42, 0x5a, 0x68},
}

// DetectDataType checks the first bytes of a stream against the signatures of
// the compression formats we can read. Byte code signatures from
// https://stackoverflow.com/a/19127748/199475
func DetectDataType(r io.Reader) (DataType, error) {
	buff := make([]byte, 6)
	n, err := io.ReadFull(r, buff)
	if err != nil && err != io.ErrUnexpectedEOF {
		if err == io.EOF {
			return DataTypeNoCompression, nil
		}
		return DataTypeInvalid, err
	}
	buff = buff[:n]

Outer:
	for dt, sig := range byteCodeSigs {
		if len(buff) < len(sig) {
			continue
		}
		for position := range sig {
			if buff[position] != sig[position] {
				continue Outer
			}
		}
		return dt, nil
	}

	return DataTypeNoCompression, nil
}

// MaybeDecompress sniffs the compression of rs, rewinds it, and wraps it in
// the matching decompressor. Closing the result closes rs.
func MaybeDecompress(rs io.ReadSeekCloser) (io.ReadCloser, error) {
	dt, err := DetectDataType(rs)
	if err != nil {
		return nil, err
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	switch dt {
	case DataTypeGzip:
		r, err := gzip.NewReader(rs)
		if err != nil {
			return nil, err
		}
		return &stackedCloser{r, rs}, nil
	case DataTypeZip:
		return &stackedCloser{zipFirstFile(zipstream.NewReader(rs)), rs}, nil
	case DataTypeBZip2:
		return &stackedCloser{bzip2.NewReader(rs), rs}, nil
	case DataTypeXZ:
		r, err := xz.NewReader(rs, 0)
		if err != nil {
			return nil, err
		}
		return &stackedCloser{r, rs}, nil
	case DataTypeZ:
		r, err := zlib.NewReader(rs)
		if err != nil {
			return nil, err
		}
		return &stackedCloser{r, rs}, nil
	}

	return rs, nil
}

// zipFirstFile positions a zip stream at its first entry. Tables are expected
// to be zipped alone.
func zipFirstFile(z *zipstream.Reader) io.Reader {
	if _, err := z.Next(); err != nil {
		return &errReader{err}
	}
	return z
}

type errReader struct{ err error }

func (e *errReader) Read([]byte) (int, error) { return 0, e.err }

// stackedCloser reads from a decompressor but closes the underlying source.
type stackedCloser struct {
	io.Reader
	src io.Closer
}

func (c *stackedCloser) Close() error {
	if rc, ok := c.Reader.(io.Closer); ok {
		rc.Close()
	}
	return c.src.Close()
}
