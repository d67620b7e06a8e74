package features

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/facegate/internal/common"
)

var ErrCorruptSignature = fmt.Errorf("%w: corrupt signature", common.ErrStoreFault)

// Signature is the scale-invariant geometry vector of one face: normalized
// pair distances followed by triplet angles in degrees.
type Signature []float64

// String encodes s as comma-separated decimal values, the persisted form.
func (s Signature) String() string {
	var b strings.Builder
	for i, v := range s {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return b.String()
}

// ParseSignature decodes the comma-separated form produced by String.
// Empty text yields an empty signature.
func ParseSignature(text string) (Signature, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Signature{}, nil
	}

	parts := strings.Split(text, ",")
	sig := make(Signature, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: value %d: %v", ErrCorruptSignature, i, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: value %d is not finite", ErrCorruptSignature, i)
		}
		sig[i] = v
	}
	return sig, nil
}
