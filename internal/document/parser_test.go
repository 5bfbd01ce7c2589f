package document

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTempFile(t *testing.T, content, ext string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp("", "analyzer-test-*"+ext)
	require.NoError(t, err)
	_, err = tmpFile.Write([]byte(content))
	require.NoError(t, err)
	tmpFile.Close()
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })
	return tmpFile.Name()
}

func createTempPDF(t *testing.T, text string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp("", "analyzer-test-*.pdf")
	require.NoError(t, err)
	defer tmpFile.Close()
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "", 12)
	pdf.MultiCell(0, 10, text, "", "", false)
	require.NoError(t, pdf.Output(tmpFile))
	return tmpFile.Name()
}

func TestPlainTextParser(t *testing.T) {
	content := "Invoice #123\nTotal: $45.00"
	file := createTempFile(t, content, ".txt")

	parser := NewPlainTextParser()
	result, err := parser.Parse(file)
	require.NoError(t, err)
	assert.Equal(t, content, result.Text)
	assert.Equal(t, 0, result.PageCount)
}

func TestPlainTextParserEmpty(t *testing.T) {
	file := createTempFile(t, "   \n\t ", ".txt")

	parser := NewPlainTextParser()
	_, err := parser.Parse(file)
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestPlainTextParserInvalidUTF8(t *testing.T) {
	parser := NewPlainTextParser()
	_, err := parser.ParseReader(bytes.NewReader([]byte{0xff, 0xfe, 0xfd}), "test.txt")
	assert.ErrorIs(t, err, ErrUnreadableDocument)
}

func TestMarkdownParser(t *testing.T) {
	content := "# Quarterly Report\n\nRevenue: $5,000\n\n- Item 1\n- Item 2"
	file := createTempFile(t, content, ".md")

	parser := NewMarkdownParser()
	result, err := parser.Parse(file)
	require.NoError(t, err)
	assert.Contains(t, result.Text, "Quarterly Report")
	assert.Contains(t, result.Text, "Item 1")
}

// TestMarkdownParserKeepsLines 行结构是下游键值对和列表检测的输入，
// 空白规范化不能把整个文档压成一行
func TestMarkdownParserKeepsLines(t *testing.T) {
	content := "Name: John\n\nAge: 34"
	parser := NewMarkdownParser()

	result, err := parser.ParseReader(strings.NewReader(content), "test.md")
	require.NoError(t, err)
	assert.Contains(t, result.Text, "\n")
}

func TestPDFParser(t *testing.T) {
	file := createTempPDF(t, "Invoice #77\nTotal: $12.00")

	parser := NewPDFParser()
	result, err := parser.Parse(file)
	require.NoError(t, err)
	assert.Contains(t, result.Text, "Invoice")
	assert.Equal(t, 1, result.PageCount)
}

func TestPDFParserInvalidSignature(t *testing.T) {
	// 带.pdf扩展名但内容不是PDF
	file := createTempFile(t, "definitely not a pdf", ".pdf")

	parser := NewPDFParser()
	_, err := parser.Parse(file)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestPDFParserReader(t *testing.T) {
	file := createTempPDF(t, "Streamed PDF content")
	data, err := os.ReadFile(file)
	require.NoError(t, err)

	parser := NewPDFParser()
	result, err := parser.ParseReader(bytes.NewReader(data), "upload.pdf")
	require.NoError(t, err)
	assert.Contains(t, result.Text, "Streamed PDF content")
}

func TestParserFactory(t *testing.T) {
	cases := []struct {
		name     string
		fileName string
		wantErr  bool
	}{
		{"pdf", "doc.pdf", false},
		{"markdown", "doc.md", false},
		{"markdown long ext", "doc.markdown", false},
		{"plain text", "doc.txt", false},
		{"unsupported", "doc.xlsx", true},
		{"no extension", "doc", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			parser, err := ParserFactory(tc.fileName)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedType)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, parser)
		})
	}
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, PDF, DetectContentType("a/b/report.PDF"))
	assert.Equal(t, Markdown, DetectContentType("notes.md"))
	assert.Equal(t, PlainText, DetectContentType("readme.txt"))
	assert.Equal(t, Unknown, DetectContentType("image.png"))
}
