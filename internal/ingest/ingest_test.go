package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErr "github.com/kaidoe/docchat/internal/pkg/errors"
	"github.com/kaidoe/docchat/internal/model"
)

func testInput(name string) Input {
	return Input{SourceName: name, CollectionID: "col-1"}
}

func TestRegistryDispatch(t *testing.T) {
	r := NewRegistry(NewTextIngestor(), NewCSVIngestor())
	ing, err := r.For(model.SourceTypeText)
	require.NoError(t, err)
	assert.Equal(t, model.SourceTypeText, ing.Type())

	_, err = r.For(model.SourceTypePDF)
	assert.Error(t, err)
}

func TestTextIngestorPlain(t *testing.T) {
	in := testInput("note.txt")
	in.Data = []byte("  hello world  ")
	recs, err := NewTextIngestor().Ingest(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "hello world", recs[0].Text)
	assert.Equal(t, model.SourceTypeText, recs[0].Metadata.Type)
	assert.Equal(t, "col-1", recs[0].Metadata.CollectionID)
}

func TestTextIngestorPastedText(t *testing.T) {
	in := testInput("pasted")
	in.Text = "some pasted content"
	recs, err := NewTextIngestor().Ingest(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "some pasted content", recs[0].Text)
}

func TestTextIngestorMarkdownStripped(t *testing.T) {
	in := testInput("doc.md")
	in.Data = []byte("# Title\n\nSome *emphasis* and a [link](https://example.com).\n\n```\ncode line\n```\n")
	recs, err := NewTextIngestor().Ingest(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Contains(t, recs[0].Text, "Title")
	assert.Contains(t, recs[0].Text, "Some emphasis and a link.")
	assert.Contains(t, recs[0].Text, "code line")
	assert.NotContains(t, recs[0].Text, "#")
	assert.NotContains(t, recs[0].Text, "](")
	assert.NotContains(t, recs[0].Text, "```")
}

func TestTextIngestorEmpty(t *testing.T) {
	in := testInput("empty.txt")
	in.Data = []byte("   \n\t  ")
	_, err := NewTextIngestor().Ingest(context.Background(), in)
	assert.True(t, appErr.IsNoContent(err))
}

func TestCSVIngestorLabelsRows(t *testing.T) {
	in := testInput("people.csv")
	in.Data = []byte("name,age,city\nalice,30,berlin\nbob,25,\n")
	recs, err := NewCSVIngestor().Ingest(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "name: alice\nage: 30\ncity: berlin", recs[0].Text)
	assert.Equal(t, "name: bob\nage: 25", recs[1].Text)
	assert.Equal(t, model.SourceTypeCSV, recs[0].Metadata.Type)
}

func TestCSVIngestorHeaderOnly(t *testing.T) {
	in := testInput("empty.csv")
	in.Data = []byte("name,age\n")
	_, err := NewCSVIngestor().Ingest(context.Background(), in)
	assert.True(t, appErr.IsNoContent(err))
}

func TestCSVIngestorInvalid(t *testing.T) {
	in := testInput("broken.csv")
	in.Data = []byte("a,b\n\"unterminated")
	_, err := NewCSVIngestor().Ingest(context.Background(), in)
	assert.ErrorIs(t, err, appErr.ErrInvalidFile)
}

func TestJSONIngestorFlatten(t *testing.T) {
	in := testInput("data.json")
	in.Data = []byte(`{"user":{"name":"alice","tags":["a","b"]},"count":2,"note":null}`)
	recs, err := NewJSONIngestor().Ingest(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Contains(t, recs[0].Text, "user.name: alice")
	assert.Contains(t, recs[0].Text, "user.tags[0]: a")
	assert.Contains(t, recs[0].Text, "user.tags[1]: b")
	assert.Contains(t, recs[0].Text, "count: 2")
	assert.Contains(t, recs[0].Text, "note: null")
}

func TestJSONIngestorInvalid(t *testing.T) {
	in := testInput("bad.json")
	in.Data = []byte(`{"unclosed":`)
	_, err := NewJSONIngestor().Ingest(context.Background(), in)
	assert.ErrorIs(t, err, appErr.ErrInvalidFile)
}

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestDOCXIngestor(t *testing.T) {
	payload := buildDocx(t, `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`)
	in := testInput("report.docx")
	in.Data = payload
	recs, err := NewDOCXIngestor().Ingest(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "First paragraph.\nSecond paragraph.", recs[0].Text)
	assert.Equal(t, model.SourceTypeDOCX, recs[0].Metadata.Type)
}

func TestDOCXIngestorNotZip(t *testing.T) {
	in := testInput("fake.docx")
	in.Data = []byte("not a zip archive")
	_, err := NewDOCXIngestor().Ingest(context.Background(), in)
	assert.ErrorIs(t, err, appErr.ErrInvalidFile)
}

type mockRunner struct {
	output []byte
	err    error
}

func (m *mockRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return m.output, m.err
}

func TestPDFIngestorSplitsPages(t *testing.T) {
	runner := &mockRunner{output: []byte("page one text\fpage two text\f")}
	ing := NewPDFIngestor(runner)
	in := testInput("doc.pdf")
	in.Data = []byte("%PDF-1.7 fake body")
	recs, err := ing.Ingest(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "page one text", recs[0].Text)
	assert.Equal(t, 1, recs[0].Metadata.Page)
	assert.Equal(t, "page two text", recs[1].Text)
	assert.Equal(t, 2, recs[1].Metadata.Page)
}

func TestPDFIngestorRejectsNonPDF(t *testing.T) {
	ing := NewPDFIngestor(&mockRunner{})
	in := testInput("doc.pdf")
	in.Data = []byte("plain text pretending")
	_, err := ing.Ingest(context.Background(), in)
	assert.ErrorIs(t, err, appErr.ErrInvalidFile)
}

func TestPDFIngestorEmptyOutput(t *testing.T) {
	ing := NewPDFIngestor(&mockRunner{output: []byte("\f\f")})
	in := testInput("blank.pdf")
	in.Data = []byte("%PDF-1.4")
	_, err := ing.Ingest(context.Background(), in)
	assert.True(t, appErr.IsNoContent(err))
}

func TestURLIngestorStripsHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Test &amp; Page</title><style>p{color:red}</style></head>
<body><script>alert(1)</script><h1>Heading</h1><p>Body   text here.</p></body></html>`))
	}))
	defer srv.Close()

	in := testInput("page")
	in.URL = srv.URL
	recs, err := NewURLIngestor(5*time.Second).Ingest(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Contains(t, recs[0].Text, "Heading")
	assert.Contains(t, recs[0].Text, "Body text here.")
	assert.NotContains(t, recs[0].Text, "alert")
	assert.NotContains(t, recs[0].Text, "color:red")
	assert.Equal(t, "Test & Page", recs[0].Metadata.Title)
}

func TestURLIngestorRejectsBadURL(t *testing.T) {
	ing := NewURLIngestor(time.Second)
	for _, raw := range []string{"", "not a url", "ftp://example.com/file", "/relative/path"} {
		in := testInput("page")
		in.URL = raw
		_, err := ing.Ingest(context.Background(), in)
		assert.ErrorIs(t, err, appErr.ErrInvalidURL, raw)
	}
}

func TestURLIngestorRejectsOversizedPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<p>" + strings.Repeat("x", 100) + "</p>"))
	}))
	defer srv.Close()

	ing := NewURLIngestor(time.Second)
	ing.maxBytes = 64
	in := testInput("page")
	in.URL = srv.URL
	_, err := ing.Ingest(context.Background(), in)
	assert.ErrorIs(t, err, appErr.ErrFileTooLarge)
}

func TestURLIngestorNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	in := testInput("page")
	in.URL = srv.URL
	_, err := NewURLIngestor(time.Second).Ingest(context.Background(), in)
	assert.Error(t, err)
}

func TestExtractVideoID(t *testing.T) {
	cases := []struct {
		link string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/shorts/abc123XYZ_-", "abc123XYZ_-"},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://m.youtube.com/watch?v=dQw4w9WgXcQ&t=42", "dQw4w9WgXcQ"},
	}
	for _, c := range cases {
		id, err := extractVideoID(c.link)
		require.NoError(t, err, c.link)
		assert.Equal(t, c.want, id, c.link)
	}

	for _, bad := range []string{"https://example.com/watch?v=x", "https://www.youtube.com/playlist?list=xx", "nonsense"} {
		_, err := extractVideoID(bad)
		assert.ErrorIs(t, err, appErr.ErrInvalidURL, bad)
	}
}

func TestYouTubeIngestorTranscript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/timedtext":
			_, _ = w.Write([]byte(`<?xml version="1.0"?>
<transcript>
  <text start="0.5" dur="2.0">hello &amp; welcome</text>
  <text start="2.5" dur="3.0">to the show</text>
</transcript>`))
		case "/oembed":
			_, _ = w.Write([]byte(`{"title":"Demo Video","author_name":"Demo Channel"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	ing := NewYouTubeIngestor(time.Second)
	ing.baseURL = srv.URL
	in := testInput("video")
	in.URL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	recs, err := ing.Ingest(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "hello & welcome to the show", recs[0].Text)
	assert.Equal(t, "Demo Video", recs[0].Metadata.Title)
	assert.Equal(t, "Demo Channel", recs[0].Metadata.Author)
	assert.Equal(t, 5, recs[0].Metadata.Duration)
}

func TestYouTubeIngestorNoTranscript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// timedtext answers 200 with an empty body when no captions exist
	}))
	defer srv.Close()

	ing := NewYouTubeIngestor(time.Second)
	ing.baseURL = srv.URL
	in := testInput("video")
	in.URL = "https://youtu.be/dQw4w9WgXcQ"
	_, err := ing.Ingest(context.Background(), in)
	assert.True(t, appErr.IsNoContent(err))
}
