package vcf

import (
	"errors"
	"strings"
)

// ErrInvalidRecord marks a record with an empty REF or ALT outside the SNV case.
var ErrInvalidRecord = errors.New("invalid record")

// Normalize upper-cases ref and alts and trims one shared leading base
// (advancing pos) and then one shared trailing base across all alternates.
// Spanning-deletion alleles are carried through untouched and ignored when
// deciding what is shared.
func Normalize(pos int64, ref string, alts []string) (int64, string, []string, error) {
	ref = strings.ToUpper(ref)
	out := make([]string, len(alts))
	live := make([]int, 0, len(alts))

	for i, a := range alts {
		a = strings.ToUpper(a)
		out[i] = a
		if a == SpanningDeletion {
			continue
		}
		live = append(live, i)
		if len(ref) == 1 && len(a) == 1 {
			continue
		}
		if len(ref) == 0 || len(a) == 0 {
			return 0, "", nil, ErrInvalidRecord
		}
	}

	if len(live) == 0 || len(ref) == 0 {
		return pos, ref, out, nil
	}

	sharesFirst := true
	for _, i := range live {
		if len(out[i]) == 0 || out[i][0] != ref[0] {
			sharesFirst = false
			break
		}
	}
	if sharesFirst {
		pos++
		ref = ref[1:]
		for _, i := range live {
			out[i] = out[i][1:]
		}
	}

	if len(ref) == 0 {
		return pos, ref, out, nil
	}

	last := ref[len(ref)-1]
	sharesLast := true
	for _, i := range live {
		if len(out[i]) == 0 || out[i][len(out[i])-1] != last {
			sharesLast = false
			break
		}
	}
	if sharesLast {
		ref = ref[:len(ref)-1]
		for _, i := range live {
			out[i] = out[i][:len(out[i])-1]
		}
	}

	return pos, ref, out, nil
}

// isSymbolic reports whether alt is a symbolic (<DEL>, <INS>...) or breakend allele.
func isSymbolic(alt string) bool {
	return strings.HasPrefix(alt, "<") || strings.ContainsAny(alt, "[]")
}
