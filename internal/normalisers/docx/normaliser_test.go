package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// createTestDOCX creates a minimal DOCX archive in memory.
func createTestDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	contentTypes, err := w.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = contentTypes.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
</Types>`))
	require.NoError(t, err)

	if documentXML != "" {
		doc, err := w.Create("word/document.xml")
		require.NoError(t, err)
		_, err = doc.Write([]byte(documentXML))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())
	return buf.Bytes()
}

func wrapBody(body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>` + body + `</w:body>
</w:document>`
}

func TestSupportedExtensions(t *testing.T) {
	assert.Equal(t, []string{".docx"}, New().SupportedExtensions())
}

func TestNormalise(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "single paragraph",
			body: `<w:p><w:r><w:t>Hello World</w:t></w:r></w:p>`,
			want: "Hello World",
		},
		{
			name: "multiple paragraphs",
			body: `<w:p><w:r><w:t>First paragraph</w:t></w:r></w:p>
<w:p><w:r><w:t>Second paragraph</w:t></w:r></w:p>
<w:p><w:r><w:t>Third paragraph</w:t></w:r></w:p>`,
			want: "First paragraph\nSecond paragraph\nThird paragraph",
		},
		{
			name: "multiple runs",
			body: `<w:p><w:r><w:t xml:space="preserve">Hello </w:t></w:r><w:r><w:t>World</w:t></w:r></w:p>`,
			want: "Hello World",
		},
		{
			name: "empty body",
			body: ``,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := createTestDOCX(t, wrapBody(tt.body))

			result, err := New().Normalise(context.Background(), "doc.docx", content)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Text)
			assert.Equal(t, ".docx", result.Format)
		})
	}
}

func TestNormalise_InvalidZip(t *testing.T) {
	result, err := New().Normalise(context.Background(), "broken.docx", []byte("not a zip file"))
	assert.ErrorIs(t, err, domain.ErrExtraction)
	assert.Nil(t, result)
}

func TestNormalise_MissingDocumentPart(t *testing.T) {
	content := createTestDOCX(t, "")

	_, err := New().Normalise(context.Background(), "empty.docx", content)
	assert.ErrorIs(t, err, domain.ErrExtraction)
	assert.Contains(t, err.Error(), "word/document.xml")
}

func TestNormalise_MalformedXML(t *testing.T) {
	content := createTestDOCX(t, "<w:document><w:body><w:p>")

	_, err := New().Normalise(context.Background(), "bad.docx", content)
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}
