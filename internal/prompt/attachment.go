package prompt

import (
	"fmt"
	"io"
	"mime/multipart"
	"strconv"

	"github.com/luaforge/script-platform/internal/model"
)

// MaxAttachments is the hard cap on reference files per request.
const MaxAttachments = 5

// ErrTooManyAttachments is returned when a form declares more reference
// files than MaxAttachments allows.
var ErrTooManyAttachments = fmt.Errorf("at most %d reference files are allowed", MaxAttachments)

// ExtractAttachments normalizes uploaded form parts into attachments,
// preserving submission order. Parts are named file_<i> with a companion
// notes_<i> text field and a fileCount field giving the upper bound.
// Missing slots are skipped; zero attachments is valid. A declared count
// over the cap is rejected rather than silently truncated.
func ExtractAttachments(form *multipart.Form) ([]model.Attachment, error) {
	if form == nil {
		return nil, nil
	}

	count := 0
	if v := formValue(form, "fileCount"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			count = parsed
		}
	}
	if count > MaxAttachments {
		return nil, ErrTooManyAttachments
	}

	var attachments []model.Attachment
	for i := 0; i < count; i++ {
		headers := form.File[fmt.Sprintf("file_%d", i)]
		if len(headers) == 0 {
			continue
		}

		file, err := headers[0].Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open attachment %d: %w", i, err)
		}
		content, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read attachment %d: %w", i, err)
		}

		attachments = append(attachments, model.Attachment{
			Filename: headers[0].Filename,
			Content:  string(content),
			Notes:    formValue(form, fmt.Sprintf("notes_%d", i)),
		})
	}

	return attachments, nil
}

func formValue(form *multipart.Form, key string) string {
	if vs := form.Value[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}
