package config

const (
	HCType          = "Content-Type"
	HAuthorization  = "Authorization"
	HAccept         = "Accept"
	HUserAgent      = "User-Agent"
	BearerPrefix    = "Bearer "
	CTypeJSON       = "application/json"
	CTypeHTML       = "text/html"
	FormFieldUpload = "file"
)

const (
	EnvAPIURL            = "INKWELL_API_URL"
	EnvToken             = "INKWELL_TOKEN"
	EnvS3AccessKeyID     = "INKWELL_S3_ACCESS_KEY_ID"
	EnvS3SecretAccessKey = "INKWELL_S3_SECRET_ACCESS_KEY"
	EnvLogLevel          = "INKWELL_LOG_LEVEL"
)
