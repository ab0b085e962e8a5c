// utils/base64.go
package utils

import (
	"encoding/base64"
	"errors"
	"strings"
)

const jpegDataURLPrefix = "data:image/jpeg;base64,"

// JPEGDataURL renders bytes the way the device shows previews.
func JPEGDataURL(data []byte) string {
	return jpegDataURLPrefix + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL accepts "data:image/...;base64,xxxx" or bare base64.
func DecodeDataURL(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		i := strings.Index(s, ",")
		if i < 0 || !strings.Contains(s[:i], ";base64") {
			return nil, errors.New("invalid data url")
		}
		s = s[i+1:]
	}
	return base64.StdEncoding.DecodeString(s)
}
