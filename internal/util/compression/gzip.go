package compression

import (
	"bytes"
	"compress/gzip"
	"io"

	"github.com/pkg/errors"
)

type GzipCompressor struct{}

func (GzipCompressor) Name() string { return Gzip }

func (GzipCompressor) Compress(data []byte) ([]byte, error) {
	var b bytes.Buffer
	w, err := gzip.NewWriterLevel(&b, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, errors.Wrap(err, "gzip encode")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "gzip encode")
	}
	return b.Bytes(), nil
}

func (GzipCompressor) Decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "gzip header")
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	return out, errors.Wrap(err, "gzip decode")
}
