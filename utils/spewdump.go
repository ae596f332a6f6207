package utils

import (
	"bytes"
	"fmt"

	"github.com/davecgh/go-spew/spew"
)

var spewConfig *spew.ConfigState

func init() {
	spewConfig = spew.NewDefaultConfig()
	spewConfig.DisableCapacities = true
	spewConfig.DisablePointerAddresses = true
}

func Dump(a ...interface{}) {
	fmt.Println(spewConfig.Sdump(a...))
}

// DumpBytesPreview renders the head of a binary payload as one printable
// line, for logging embedded texture blobs without flooding the output.
func DumpBytesPreview(buf []byte, limit int) string {
	var out bytes.Buffer

	truncated := false
	if limit > 0 && len(buf) > limit {
		buf = buf[:limit]
		truncated = true
	}

	for _, b := range buf {
		if b >= 0x20 && b <= 0x7f {
			out.WriteRune(rune(b))
		} else {
			out.WriteString(fmt.Sprintf("\\x%.2x", b))
		}
	}
	if truncated {
		out.WriteString("...")
	}

	return out.String()
}
