package llm

import (
	"encoding/base64"
	"mime"
	"path/filepath"
	"strings"
)

// DataURL encodes the attachment as a base64 data URL. The MIME type falls back
// to the file extension, then to application/octet-stream.
func DataURL(att Attachment) string {
	mt := strings.TrimSpace(att.MIMEType)
	if mt == "" {
		mt = mime.TypeByExtension(strings.ToLower(filepath.Ext(att.Name)))
	}
	if mt == "" {
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(att.Name), "."))
		switch ext {
		case "jpg", "jpeg":
			mt = "image/jpeg"
		case "png":
			mt = "image/png"
		case "pdf":
			mt = "application/pdf"
		default:
			mt = "application/octet-stream"
		}
	}
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(att.Data)
}
