// Package hashid identifies the likely algorithm behind a hash-looking token.
//
// Detection is purely syntactic. A 32 character hex digest is reported as
// LabelMD5OrNTLM because nothing in the token distinguishes the two, and
// base64-looking tokens are reported with the weak LabelBase64 guess.
package hashid

import (
	"regexp"
	"strings"
)

// Label names the detected hash family.
type Label string

// Known labels.
const (
	LabelUnknown     Label = "unknown"
	LabelBcrypt      Label = "bcrypt"
	LabelMD5Crypt    Label = "md5crypt"
	LabelSHA512Crypt Label = "sha512crypt"
	LabelMD5OrNTLM   Label = "md5_or_ntlm"
	LabelSHA1        Label = "sha1"
	LabelSHA256      Label = "sha256"
	LabelSHA512      Label = "sha512"
	LabelBase64      Label = "base64"
)

// Confident reports whether the label is strong enough to classify a value
// as a hash. Unknown and the base64 guess are not.
func (l Label) Confident() bool {
	return l != LabelUnknown && l != LabelBase64
}

var (
	hexPattern    = regexp.MustCompile(`^[0-9a-fA-F]+$`)
	base64Pattern = regexp.MustCompile(`^[A-Za-z0-9+/=]{8,}$`)
)

// hexLengths maps plain hex digest lengths to their label.
var hexLengths = map[int]Label{
	32:  LabelMD5OrNTLM,
	40:  LabelSHA1,
	64:  LabelSHA256,
	128: LabelSHA512,
}

// Detect returns the label for token. Surrounding whitespace is ignored.
func Detect(token string) Label {
	s := strings.TrimSpace(token)
	if s == "" {
		return LabelUnknown
	}

	switch {
	case strings.HasPrefix(s, "$2a$"), strings.HasPrefix(s, "$2b$"), strings.HasPrefix(s, "$2y$"):
		return LabelBcrypt
	case strings.HasPrefix(s, "$1$"):
		return LabelMD5Crypt
	case strings.HasPrefix(s, "$6$"):
		return LabelSHA512Crypt
	}

	if hexPattern.MatchString(s) {
		if label, ok := hexLengths[len(s)]; ok {
			return label
		}
	}

	if base64Pattern.MatchString(s) {
		switch len(s) % 4 {
		case 0, 2, 3:
			return LabelBase64
		}
	}

	return LabelUnknown
}
