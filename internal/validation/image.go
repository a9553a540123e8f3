package validation

import (
	"fmt"
	"net/http"
	"strings"
)

// CheckImage validates an uploaded file: non-empty, at most maxBytes, and
// sniffed as an image. head is the first bytes of the file (up to 512).
func CheckImage(c *Checker, path string, size, maxBytes int64, head []byte) {
	switch {
	case size == 0:
		c.Add(path, nil, "File cannot be empty.")
	case maxBytes > 0 && size > maxBytes:
		c.Add(path, size, fmt.Sprintf("File cannot be larger than %dMB.", maxBytes/(1<<20)))
	case !strings.HasPrefix(http.DetectContentType(head), "image/"):
		c.Add(path, nil, "File uploaded is not of type image.")
	}
}
