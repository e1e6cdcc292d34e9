package document

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const sampleDocumentXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Clinically proven</w:t></w:r><w:r><w:t> to cure diabetes.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Order today.</w:t></w:r></w:p>
  </w:body>
</w:document>`

type fakeRunner struct {
	out  []byte
	name string
	args []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.name = name
	f.args = args
	return f.out, nil
}

func TestDOCX_Extract(t *testing.T) {
	text, err := NewDOCX().Extract(context.Background(), buildDOCX(t, sampleDocumentXML), "")
	require.NoError(t, err)
	assert.Equal(t, "Clinically proven to cure diabetes.\nOrder today.", text)
}

func TestDOCX_NotAZip(t *testing.T) {
	_, err := NewDOCX().Extract(context.Background(), []byte("not a zip"), "")
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestDOCX_MissingBody(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("other.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = NewDOCX().Extract(context.Background(), buf.Bytes(), "")
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestPDF_Extract(t *testing.T) {
	tmp := t.TempDir()
	runner := &fakeRunner{out: []byte("  Page one text\n")}
	p := NewPDF(runner, tmp)

	text, err := p.Extract(context.Background(), []byte("%PDF-1.7 body"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "Page one text", text)
	assert.Equal(t, "pdftotext", runner.name)
	assert.Equal(t, "-", runner.args[len(runner.args)-1])

	entries, _ := os.ReadDir(tmp)
	assert.Empty(t, entries)
}

func TestPDF_RejectsNonPDF(t *testing.T) {
	_, err := NewPDF(&fakeRunner{}, t.TempDir()).Extract(context.Background(), []byte("PK"), "application/pdf")
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestPlain_Extract(t *testing.T) {
	text, err := Plain{}.Extract(context.Background(), []byte("  hello \n"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	_, err = Plain{}.Extract(context.Background(), []byte{0xff, 0xfe, 0xfd}, "text/plain")
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestRouter(t *testing.T) {
	pdf := &fakeRunner{out: []byte("pdf text")}
	r := NewRouter(NewPDF(pdf, t.TempDir()), NewDOCX(), Plain{})
	ctx := context.Background()

	text, err := r.Extract(ctx, []byte("%PDF-1.4"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "pdf text", text)

	text, err = r.Extract(ctx, buildDOCX(t, sampleDocumentXML), "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	require.NoError(t, err)
	assert.Contains(t, text, "Order today.")

	text, err = r.Extract(ctx, []byte("plain words"), "text/plain; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, "plain words", text)

	_, err = r.Extract(ctx, []byte("x"), "application/vnd.ms-excel")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = r.Extract(ctx, []byte{0xd0, 0xcf, 0x11, 0xe0}, "application/msword")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Contains(t, err.Error(), ".doc")
}

const nestedDocumentXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"
  xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <w:body>
    <w:p><w:r><w:t>Buy now.</w:t></w:r></w:p>
    <w:p><w:hyperlink r:id="rId5"><w:r><w:t>Cures diabetes in 7 days</w:t></w:r></w:hyperlink></w:p>
    <w:sdt><w:sdtContent><w:p><w:r><w:t>No side effects</w:t></w:r></w:p></w:sdtContent></w:sdt>
    <w:tbl>
      <w:tr>
        <w:tc><w:p><w:r><w:t>100% guaranteed results</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>Doctor</w:t></w:r><w:r><w:tab/><w:t>approved</w:t></w:r></w:p></w:tc>
      </w:tr>
    </w:tbl>
    <w:p><w:r><w:delText>withdrawn claim</w:delText></w:r></w:p>
  </w:body>
</w:document>`

func TestDOCX_ExtractNestedText(t *testing.T) {
	text, err := NewDOCX().Extract(context.Background(), buildDOCX(t, nestedDocumentXML), "")
	require.NoError(t, err)
	assert.Equal(t,
		"Buy now.\nCures diabetes in 7 days\nNo side effects\n100% guaranteed results\tDoctor\tapproved", text)
	assert.NotContains(t, text, "withdrawn claim")
}

func TestDOCX_MalformedXML(t *testing.T) {
	_, err := NewDOCX().Extract(context.Background(), buildDOCX(t, `<w:document xmlns:w="x"><w:body>`), "")
	assert.ErrorIs(t, err, ErrInvalidDocument)
}
