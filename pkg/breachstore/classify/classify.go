// Package classify turns raw dump lines into classified values.
//
// A line is either a pair ("alice:secret", "a@b.com;P@ss1") split on the
// first configured separator found in it, or a list of tokens separated by
// whitespace and commas. Values are never case-folded or otherwise
// normalized beyond trimming surrounding whitespace.
package classify

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/jamesainslie/breachstore/pkg/breachstore/hashid"
	"github.com/jamesainslie/breachstore/pkg/breachstore/types"
)

// DefaultSeparators is the default pair separator priority list.
var DefaultSeparators = []string{":", ";", "\t"}

// commentPrefixes mark lines that carry no data.
var commentPrefixes = []string{"#", "//", ";", "--"}

var userPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{2,64}$`)

// IsCommentOrEmpty reports whether line is blank or a comment once
// surrounding whitespace is removed.
func IsCommentOrEmpty(line string) bool {
	s := strings.TrimSpace(line)
	if s == "" {
		return true
	}
	for _, p := range commentPrefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// Line classifies one raw line using seps in priority order.
// It returns nil for empty and comment lines.
func Line(line string, seps []string) []types.Item {
	s := strings.Trim(line, "\r\n")
	if IsCommentOrEmpty(s) {
		return nil
	}

	for _, sep := range seps {
		if sep == "" {
			continue
		}
		left, right, found := strings.Cut(s, sep)
		if !found {
			continue
		}
		return pair(strings.TrimSpace(left), strings.TrimSpace(right))
	}

	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	items := make([]types.Item, 0, len(fields))
	for _, f := range fields {
		if it := Token(f); it.Value != "" {
			items = append(items, it)
		}
	}
	return items
}

// pair classifies the two halves of a separator-split line.
// The right half is a hash when it confidently looks like one, otherwise a password.
func pair(left, right string) []types.Item {
	items := make([]types.Item, 0, 2)
	if left != "" {
		if it := Token(left); it.Value != "" {
			items = append(items, it)
		}
	}
	if right != "" {
		kind := types.KindPassword
		if hashid.Detect(right).Confident() {
			kind = types.KindHash
		}
		items = append(items, types.Item{Value: right, Kind: kind})
	}
	return items
}

// Token infers the kind of a single token.
// An empty token yields an empty password item which callers discard.
func Token(token string) types.Item {
	t := strings.TrimSpace(token)
	switch {
	case t == "":
		return types.Item{Kind: types.KindPassword}
	case strings.Count(t, "@") == 1:
		return types.Item{Value: t, Kind: types.KindEmail}
	case hashid.Detect(t).Confident():
		return types.Item{Value: t, Kind: types.KindHash}
	case userPattern.MatchString(t):
		return types.Item{Value: t, Kind: types.KindUser}
	default:
		return types.Item{Value: t, Kind: types.KindPassword}
	}
}

// Forced returns the value of line for forced-kind ingestion: the trimmed
// line itself, or "" for comments and blank lines.
func Forced(line string) string {
	if IsCommentOrEmpty(line) {
		return ""
	}
	return strings.TrimSpace(line)
}
