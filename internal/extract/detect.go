package extract

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/backlog-forge/constants"
	"github.com/joseph-ayodele/backlog-forge/internal/common"
)

var (
	miroURLRe = regexp.MustCompile(`miro\.com/app/board/([a-zA-Z0-9_=-]+)`)
	boardIDRe = regexp.MustCompile(`^[a-zA-Z0-9_=-]+$`)
)

// DetectKind resolves the source kind from the MIME type first and the file
// extension second.
func DetectKind(mimeType, filename string) (constants.SourceKind, error) {
	if k, ok := constants.KindFromMIME(mimeType); ok {
		return k, nil
	}
	if k, ok := constants.KindFromExt(filepath.Ext(filename)); ok {
		return k, nil
	}
	return "", common.UnsupportedInputError(mimeType, filename)
}

// ParseBoardRef returns the board id from a Miro board URL or a bare id.
func ParseBoardRef(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if m := miroURLRe.FindStringSubmatch(ref); m != nil {
		return m[1], nil
	}
	if boardIDRe.MatchString(ref) {
		return ref, nil
	}
	return "", common.InvalidReferenceError(ref)
}

// CountWords counts whitespace separated tokens.
func CountWords(s string) int {
	return len(strings.Fields(s))
}
