package feed

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
)

// Size limits for staged images, by usage context.
const (
	AvatarImageLimit = 5 << 20  // profile pictures and avatars
	PostImageLimit   = 10 << 20 // feed post attachments
)

var acceptedImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
}

// StagedImage is a locally validated image ready to attach to a draft.
type StagedImage struct {
	MediaType string
	Size      int64

	data []byte
}

// StageImage reads a candidate image and validates it against the given
// size limit. The media type is sniffed from content, never taken from a
// file name. No network I/O is involved.
func StageImage(r io.Reader, limit int64) (*StagedImage, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("image exceeds %d bytes: %w", limit, ErrFileTooLarge)
	}
	mediaType := http.DetectContentType(data)
	if _, ok := acceptedImageTypes[mediaType]; !ok {
		return nil, fmt.Errorf("%s: %w", mediaType, ErrUnsupportedMediaType)
	}
	return &StagedImage{
		MediaType: mediaType,
		Size:      int64(len(data)),
		data:      data,
	}, nil
}

// PreviewDataURL returns a renderable data URL for the staged image. The
// result is advisory for the UI and doubles as the inline image payload on
// a create request.
func (img *StagedImage) PreviewDataURL() string {
	return "data:" + img.MediaType + ";base64," + base64.StdEncoding.EncodeToString(img.data)
}
