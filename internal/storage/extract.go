package storage

import (
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var textExtensions = map[string]string{
	".txt":  "text/plain; charset=utf-8",
	".md":   "text/markdown; charset=utf-8",
	".csv":  "text/csv; charset=utf-8",
	".json": "application/json",
	".pdf":  "application/pdf",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// SanitizeFileName keeps only the base name and drops characters that are
// unsafe in paths or headers. An unusable name becomes "document".
func SanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == 0x7f, r == '/', r == '"', r == ':':
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "document"
	}
	return name
}

// ContentType guesses a MIME type from the file extension.
func ContentType(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ct, ok := textExtensions[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// IsTextual reports whether text can be extracted from content of this type and name.
func IsTextual(contentType, fileName string) bool {
	if strings.HasPrefix(contentType, "text/") {
		return true
	}
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".txt", ".md", ".csv":
		return true
	}
	return false
}

// ExtractText returns head as a string with invalid UTF-8 sequences and NUL
// bytes dropped. A multi-byte rune cut off at the end of head is dropped too.
func ExtractText(head []byte) string {
	var b strings.Builder
	b.Grow(len(head))
	for len(head) > 0 {
		r, size := utf8.DecodeRune(head)
		head = head[size:]
		if r == utf8.RuneError && size <= 1 {
			continue
		}
		if r == 0 {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
