// Package compression holds the codecs draft content is stored with.
package compression

import "github.com/pkg/errors"

type Compressor interface {
	Name() string
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

const (
	Zstd = "zstd"
	Gzip = "gzip"
)

// ByName returns the codec stored under name. An empty name means zstd.
func ByName(name string) (Compressor, error) {
	switch name {
	case Zstd, "":
		return ZstdCompressor{}, nil
	case Gzip:
		return GzipCompressor{}, nil
	}
	return nil, errors.Errorf("unknown compression %q", name)
}
