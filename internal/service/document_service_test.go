package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"oneask-be/pkg/qa/indexing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "report.pdf", "report.pdf"},
		{"path traversal stripped", "../../etc/passwd", "passwd"},
		{"backslashes replaced", `notes\draft.txt`, "notes_draft.txt"},
		{"control characters replaced", "bad\x00name.txt", "bad_name.txt"},
		{"blank falls back", "   ", "upload"},
		{"dot falls back", ".", "upload"},
		{"unicode preserved", "laporan-bulanan-ünïcode.docx", "laporan-bulanan-ünïcode.docx"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, sanitizeFileName(tc.in))
		})
	}
}

func TestSanitizeFileNameCapsLength(t *testing.T) {
	long := strings.Repeat("a", 400) + ".txt"
	got := sanitizeFileName(long)

	assert.LessOrEqual(t, len([]rune(got)), maxFileNameRunes)
	assert.True(t, strings.HasSuffix(got, ".txt"), "extension should survive truncation, got %q", got)
}

func TestParseDate(t *testing.T) {
	assert.Nil(t, parseDate(""))
	assert.Nil(t, parseDate("not-a-date"))

	day := parseDate("2025-06-01")
	if assert.NotNil(t, day) {
		assert.Equal(t, "2025-06-01", day.Format("2006-01-02"))
	}

	stamp := parseDate("2025-06-01T10:30:00Z")
	if assert.NotNil(t, stamp) {
		assert.Equal(t, 10, stamp.Hour())
	}
}

func TestExtractPlainText(t *testing.T) {
	dir := t.TempDir()

	textPath := filepath.Join(dir, "doc.txt")
	assert.NoError(t, os.WriteFile(textPath, []byte("hello world"), 0o644))

	content, err := extractPlainText(textPath, "doc.txt")
	assert.NoError(t, err)
	assert.Equal(t, "hello world", content)

	t.Run("unsupported extension is skipped", func(t *testing.T) {
		binPath := filepath.Join(dir, "doc.bin")
		assert.NoError(t, os.WriteFile(binPath, []byte{0x01, 0x02}, 0o644))

		_, err := extractPlainText(binPath, "doc.bin")
		assert.ErrorIs(t, err, indexing.ErrSkipped)
	})

	t.Run("invalid utf8 is skipped", func(t *testing.T) {
		badPath := filepath.Join(dir, "bad.txt")
		assert.NoError(t, os.WriteFile(badPath, []byte{0xff, 0xfe, 0xfd}, 0o644))

		_, err := extractPlainText(badPath, "bad.txt")
		assert.ErrorIs(t, err, indexing.ErrSkipped)
	})
}
