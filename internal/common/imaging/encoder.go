// internal/common/imaging/encoder.go
package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"form-pipeline/internal/models"
)

// ErrEncode marks every failure to turn an upload into a data URL.
var ErrEncode = errors.New("image encode failed")

const defaultContentType = "application/octet-stream"

// EncodeError wraps the underlying read failure for one file.
type EncodeError struct {
	FileName string
	Err      error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %q: %v", e.FileName, e.Err)
}

func (e *EncodeError) Unwrap() []error {
	return []error{ErrEncode, e.Err}
}

// Encoder reads an upload fully and renders it as a base64 data URL.
// Size and type are not checked here; the schema already did that.
type Encoder struct {
	chunkSize int
}

func NewEncoder() *Encoder {
	return &Encoder{chunkSize: 64 * 1024}
}

// Encode is single-shot. Cancelling ctx stops the read between chunks.
func (e *Encoder) Encode(ctx context.Context, upload models.Upload) (string, error) {
	if upload.Open == nil {
		return "", &EncodeError{FileName: upload.Name, Err: errors.New("upload has no content")}
	}

	rc, err := upload.Open()
	if err != nil {
		return "", &EncodeError{FileName: upload.Name, Err: err}
	}
	defer rc.Close()

	var buf bytes.Buffer
	if upload.Size > 0 {
		buf.Grow(int(upload.Size))
	}
	chunk := make([]byte, e.chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return "", &EncodeError{FileName: upload.Name, Err: err}
		}
		n, err := rc.Read(chunk)
		buf.Write(chunk[:n])
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", &EncodeError{FileName: upload.Name, Err: err}
		}
	}

	contentType := upload.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// UploadFromFile describes a file on disk the way a browser file input
// would: base name, byte size, and a type guessed from the extension.
func UploadFromFile(path string) (*models.Upload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat image: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("image %s is a directory", path)
	}

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}

	return &models.Upload{
		Name:        filepath.Base(path),
		Size:        info.Size(),
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// UploadFromBytes wraps in-memory content.
func UploadFromBytes(name, contentType string, data []byte) *models.Upload {
	return &models.Upload{
		Name:        name,
		Size:        int64(len(data)),
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}
