package config

const (
	DefaultSyntaxTheme string = "gruvbox"

	UploadBackendAPI = "api"
	UploadBackendS3  = "s3"

	CompressionZstd = "zstd"
	CompressionGzip = "gzip"
)
