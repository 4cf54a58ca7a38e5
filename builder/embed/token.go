package embed

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const radixDigits = "0123456789abcdefghijklmnopqrstuvwxyz"

// SyndicationToken derives the token the syndication endpoint expects for a
// post id: (id / 1e15 * pi) in base 36 with every 0 and the point removed.
func SyndicationToken(id string) (string, error) {
	n, err := strconv.ParseFloat(id, 64)
	if err != nil || n <= 0 || math.IsInf(n, 0) {
		return "", fmt.Errorf("invalid post id %q", id)
	}
	s := formatRadix((n/1e15)*math.Pi, 36)
	return strings.NewReplacer("0", "", ".", "").Replace(s), nil
}

// formatRadix prints a non-negative float in the given radix using the
// shortest digit string that still identifies value, as ECMAScript engines do.
func formatRadix(value float64, radix int) string {
	r := float64(radix)
	integer := math.Floor(value)
	fraction := value - integer
	delta := math.Max(math.Nextafter(0, 1), 0.5*(math.Nextafter(value, math.Inf(1))-value))

	var frac []byte
	if fraction >= delta {
		for {
			fraction *= r
			delta *= r
			digit := int(fraction)
			frac = append(frac, radixDigits[digit])
			fraction -= float64(digit)
			// round half to even, carrying into earlier digits
			if fraction > 0.5 || (fraction == 0.5 && digit&1 == 1) {
				if fraction+delta > 1 {
					for {
						i := len(frac) - 1
						if i < 0 {
							integer++
							break
						}
						d := strings.IndexByte(radixDigits, frac[i])
						if d+1 < radix {
							frac[i] = radixDigits[d+1]
							break
						}
						frac = frac[:i]
					}
					break
				}
			}
			if fraction < delta {
				break
			}
		}
	}

	var rev []byte
	for integer/r >= 1<<53 {
		integer /= r
		rev = append(rev, '0')
	}
	for {
		rem := math.Mod(integer, r)
		rev = append(rev, radixDigits[int(rem)])
		integer = (integer - rem) / r
		if integer <= 0 {
			break
		}
	}

	var b strings.Builder
	for i := len(rev) - 1; i >= 0; i-- {
		b.WriteByte(rev[i])
	}
	if len(frac) > 0 {
		b.WriteByte('.')
		b.Write(frac)
	}
	return b.String()
}
