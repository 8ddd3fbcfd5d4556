package prompt

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildForm(t *testing.T, files []struct{ name, content, notes string }) *multipart.Form {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("message", "do the thing"))
	require.NoError(t, w.WriteField("fileCount", strconv.Itoa(len(files))))
	for i, f := range files {
		part, err := w.CreateFormFile(fmt.Sprintf("file_%d", i), f.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
		require.NoError(t, w.WriteField(fmt.Sprintf("notes_%d", i), f.notes))
	}
	require.NoError(t, w.Close())

	reader := multipart.NewReader(&buf, w.Boundary())
	form, err := reader.ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form
}

func TestExtractAttachments(t *testing.T) {
	form := buildForm(t, []struct{ name, content, notes string }{
		{"first.lua", "print(1)", "entry point"},
		{"second.lua", "print(2)", ""},
	})

	got, err := ExtractAttachments(form)
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.Equal(t, "first.lua", got[0].Filename)
	require.Equal(t, "print(1)", got[0].Content)
	require.Equal(t, "entry point", got[0].Notes)
	require.Equal(t, "second.lua", got[1].Filename)
	require.Empty(t, got[1].Notes)
}

func TestExtractAttachmentsRejectsTooMany(t *testing.T) {
	files := make([]struct{ name, content, notes string }, MaxAttachments+2)
	for i := range files {
		files[i] = struct{ name, content, notes string }{
			fmt.Sprintf("f%d.lua", i), "x", "",
		}
	}

	got, err := ExtractAttachments(buildForm(t, files))
	require.ErrorIs(t, err, ErrTooManyAttachments)
	require.Nil(t, got)

	// Exactly the cap is still accepted.
	got, err = ExtractAttachments(buildForm(t, files[:MaxAttachments]))
	require.NoError(t, err)
	require.Len(t, got, MaxAttachments)
	require.Equal(t, "f0.lua", got[0].Filename)
}

func TestExtractAttachmentsEmpty(t *testing.T) {
	got, err := ExtractAttachments(buildForm(t, nil))
	require.NoError(t, err)
	require.Empty(t, got)

	got, err = ExtractAttachments(nil)
	require.NoError(t, err)
	require.Empty(t, got)
}
