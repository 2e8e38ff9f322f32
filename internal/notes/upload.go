package notes

import (
	"errors"
	"fmt"
	"github.com/gabriel-vasile/mimetype"
	"mime/multipart"
	"strconv"
	"strings"
)

var allowedImageTypes = []string{
	"image/jpeg",
	"image/png",
	"image/webp",
	"image/bmp",
	"image/svg+xml",
}

var allowedDocumentTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/rtf",
	"application/vnd.oasis.opendocument.text",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.oasis.opendocument.spreadsheet",
	"text/csv",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"application/vnd.oasis.opendocument.presentation",
}

var errUnsupportedFileType = errors.New("Unsupported file type. Please upload an image or a document (PDF, Word, Excel, PowerPoint, OpenDocument, RTF or CSV).")

// UploadValidator checks attachments before they are stored.
type UploadValidator interface {
	// Validate returns the detected content type of fh or an error describing why it is rejected.
	Validate(fh *multipart.FileHeader) (string, error)
}

// MimeUploadValidator limits the size of an upload and sniffs its content type.
type MimeUploadValidator struct {
	MaxSize int64
}

var _ UploadValidator = &MimeUploadValidator{}

func (v *MimeUploadValidator) Validate(fh *multipart.FileHeader) (string, error) {
	if fh.Size > v.MaxSize {
		return "", fmt.Errorf("File too large. The maximum file size that can be uploaded is %sMB", megabytes(v.MaxSize))
	}

	file, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("could not read the uploaded file: %w", err)
	}
	defer file.Close()

	detected, err := mimetype.DetectReader(file)
	if err != nil {
		return "", fmt.Errorf("could not read the uploaded file: %w", err)
	}

	if !isAllowed(detected) {
		return "", errUnsupportedFileType
	}

	return detected.String(), nil
}

func isAllowed(detected *mimetype.MIME) bool {
	for _, list := range [][]string{allowedImageTypes, allowedDocumentTypes} {
		for _, allowed := range list {
			if detected.Is(allowed) {
				return true
			}
		}
	}
	return false
}

// megabytes formats size like 10.0 or 2.5
func megabytes(size int64) string {
	s := strconv.FormatFloat(float64(size)/(1024*1024), 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
