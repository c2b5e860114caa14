package storage

import (
	"path"
	"strings"
)

// PDFContentType は添付ファイルを保存する際のContent-Type。
const PDFContentType = "application/pdf"

// IsPDF は添付ファイルがPDFかどうかを拡張子またはContent-Typeで判定する。
func IsPDF(name, contentType string) bool {
	if strings.EqualFold(path.Ext(name), ".pdf") {
		return true
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), PDFContentType)
}
