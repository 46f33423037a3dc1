package storage

import (
	"bytes"
	"image"
	_ "image/gif"  // register decoders for dimension probing
	_ "image/jpeg" //
	_ "image/png"  //
	"net/http"
)

// DetectContentType sniffs the content type of artifact bytes. Providers
// return PNG today, but the stored content type follows the actual payload
// so a provider switch cannot mislabel objects.
func DetectContentType(data []byte) string {
	if len(data) == 0 {
		return "application/octet-stream"
	}
	return http.DetectContentType(data)
}

// ProbeDimensions returns the pixel dimensions of an encoded image, or
// ok=false when the payload is not a decodable image. Used for logging only;
// a failed probe never fails an upload.
func ProbeDimensions(data []byte) (width, height int, ok bool) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}
