// Package encoding normalizes names and paths read from asset files.
package encoding

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

// ToUTF8 returns data as a UTF-8 string. Bytes that are not valid UTF-8
// are decoded as EUC-KR, the encoding older Korean modeling tools write
// object and material names in. Undecodable input is returned as-is.
func ToUTF8(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	result, _, err := transform.Bytes(korean.EUCKR.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// StringToUTF8 is ToUTF8 for strings.
func StringToUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return ToUTF8([]byte(s))
}

// UTF8ToEUCKR encodes s as EUC-KR. Returns the original bytes if s has
// characters EUC-KR cannot represent.
func UTF8ToEUCKR(s string) []byte {
	result, _, err := transform.Bytes(korean.EUCKR.NewEncoder(), []byte(s))
	if err != nil {
		return []byte(s)
	}
	return result
}

// NormalizePath converts backslash separators to forward slashes.
func NormalizePath(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// TrimNull cuts data at the first null byte.
func TrimNull(data []byte) []byte {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		return data[:i]
	}
	return data
}
