package middleware

// Request body size ceilings for the analysis surface. NewRouter attaches
// only DefaultSizeLimiter, to every route, so MaxRequestBodyBytes is the
// ceiling every request body (uploads to /v1/analyze included) is held
// to; AnalyzeBodyLimiter and ArtifactUploadLimiter apply the other two
// ceilings but are not attached to any route.
const (
	// MaxRequestBodyBytes is the generic ceiling applied by
	// DefaultSizeLimiter.
	MaxRequestBodyBytes int64 = 10 * 1024 * 1024 // 10 MB

	// MaxJSONPayloadBytes is the ceiling applied by AnalyzeBodyLimiter,
	// sized for JSON envelopes that embed an artifact as base64.
	MaxJSONPayloadBytes int64 = 5 * 1024 * 1024 // 5 MB

	// MaxArtifactUploadBytes is the ceiling applied by
	// ArtifactUploadLimiter, sized for raw multipart/binary uploads.
	MaxArtifactUploadBytes int64 = 50 * 1024 * 1024 // 50 MB
)
