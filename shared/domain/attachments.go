package domain

import (
	"bytes"
	"io"
)

type FileCommonMetadata struct {
	Filename    string
	SizeBytes   int64
	MimeType    string
	ImageWidth  *int
	ImageHeight *int
}

// PendingFile is an image selected for upload but not yet submitted.
type PendingFile struct {
	FileCommonMetadata
	Open func() (io.ReadCloser, error)
}

// NewPendingFile wraps in-memory content.
func NewPendingFile(filename, mimeType string, data []byte) *PendingFile {
	return &PendingFile{
		FileCommonMetadata: FileCommonMetadata{
			Filename:  filename,
			SizeBytes: int64(len(data)),
			MimeType:  mimeType,
		},
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}
