package apiclient

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"sort"
	"strings"

	"github.com/itchan-dev/discussion/shared/domain"
)

// ImageField is the multipart part name carrying the attachment.
const ImageField = "image"

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// multipartBody streams the form fields and the image through a pipe so the
// file is never held in memory twice.
func multipartBody(fields map[string]string, image *domain.PendingFile) (io.Reader, string) {
	pipeReader, pipeWriter := io.Pipe()
	writer := multipart.NewWriter(pipeWriter)

	go func() {
		err := writeMultipart(writer, fields, image)
		if err == nil {
			err = writer.Close()
		}
		pipeWriter.CloseWithError(err)
	}()

	return pipeReader, writer.FormDataContentType()
}

func writeMultipart(writer *multipart.Writer, fields map[string]string, image *domain.PendingFile) error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writer.WriteField(name, fields[name]); err != nil {
			return err
		}
	}

	file, err := image.Open()
	if err != nil {
		return fmt.Errorf("failed to open attachment: %w", err)
	}
	defer file.Close()

	// Create part with proper Content-Type header
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, ImageField, escapeQuotes(image.Filename)))
	if image.MimeType != "" {
		h.Set("Content-Type", image.MimeType)
	}

	part, err := writer.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, file)
	return err
}
