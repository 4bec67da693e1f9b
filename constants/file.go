package constants

import "strings"

// SourceKind identifies where the text of a ContentDocument came from.
type SourceKind string

const (
	SourceImage SourceKind = "image"
	SourcePDF   SourceKind = "pdf"
	SourceJSON  SourceKind = "json"
	SourceText  SourceKind = "text"
	SourceBoard SourceKind = "board"
)

// MaxUploadMBDefault caps uploaded files at the HTTP boundary.
const MaxUploadMBDefault = 10

// extToKind holds the file extensions accepted when the MIME type is not conclusive.
var extToKind = map[string]SourceKind{
	"jpg":      SourceImage,
	"jpeg":     SourceImage,
	"png":      SourceImage,
	"gif":      SourceImage,
	"bmp":      SourceImage,
	"webp":     SourceImage,
	"tiff":     SourceImage,
	"pdf":      SourcePDF,
	"json":     SourceJSON,
	"txt":      SourceText,
	"md":       SourceText,
	"markdown": SourceText,
}

// AllowedExtensions returns the extensions the extractor understands (without dots).
func AllowedExtensions() map[string]struct{} {
	out := make(map[string]struct{}, len(extToKind))
	for ext := range extToKind {
		out[ext] = struct{}{}
	}
	return out
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// KindFromExt maps a normalized extension to a SourceKind.
func KindFromExt(ext string) (SourceKind, bool) {
	k, ok := extToKind[NormalizeExt(ext)]
	return k, ok
}

// KindFromMIME maps a MIME type to a SourceKind. Parameters (";charset=...") are ignored.
func KindFromMIME(mimeType string) (SourceKind, bool) {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	switch {
	case mt == "":
		return "", false
	case strings.HasPrefix(mt, "image/"):
		return SourceImage, true
	case mt == "application/pdf":
		return SourcePDF, true
	case mt == "application/json":
		return SourceJSON, true
	case strings.HasPrefix(mt, "text/"):
		return SourceText, true
	}
	return "", false
}

// DefaultMIME is used for attachments whose MIME type was not supplied.
func DefaultMIME(kind SourceKind, ext string) string {
	switch kind {
	case SourcePDF:
		return "application/pdf"
	case SourceImage:
		switch NormalizeExt(ext) {
		case "jpg", "jpeg":
			return "image/jpeg"
		case "gif":
			return "image/gif"
		case "bmp":
			return "image/bmp"
		case "webp":
			return "image/webp"
		case "tiff":
			return "image/tiff"
		}
		return "image/png"
	case SourceJSON:
		return "application/json"
	}
	return "text/plain"
}
