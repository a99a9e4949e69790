package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/seqrender/seqrender/pkg/errors"
	"github.com/seqrender/seqrender/pkg/svgdom"
)

// Dimensions reads the width and height attributes of the root element and
// coerces them to integers the way the browser viewport expects: surrounding
// whitespace is ignored, fractions are truncated toward zero, values outside
// the int32 range wrap modulo 2^32, and values that are not plain numbers
// (such as "100%" or "12px") become 0.
// A missing attribute is an error.
func Dimensions(root *svgdom.Node) (width, height int, err error) {
	w, ok := root.GetAttribute("width")
	if !ok {
		return 0, 0, errors.New(errors.ErrCodeMissingDimension, "svg root has no width attribute")
	}
	h, ok := root.GetAttribute("height")
	if !ok {
		return 0, 0, errors.New(errors.ErrCodeMissingDimension, "svg root has no height attribute")
	}
	return toInt(w), toInt(h), nil
}

func toInt(s string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	m := math.Mod(math.Trunc(f), 1<<32)
	if m < 0 {
		m += 1 << 32
	}
	return int(int32(uint32(m)))
}
