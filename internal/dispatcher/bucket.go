package dispatcher

// bucketLabels is the fixed partition of ticker initials. Congested
// first letters (E, I, P, S) are subdivided on the second character so
// the buckets carry roughly equal load across US equity symbols.
var bucketLabels = []string{
	"A", "B", "C", "D",
	"EA-E", "EF-Z",
	"F", "G", "H",
	"IA-E", "IF-Z",
	"J", "K", "L", "M", "N", "O",
	"PA-E", "PF-Z",
	"Q", "R",
	"SA-E", "SF-N", "SO-Z",
	"T", "U", "V", "W", "X", "Y", "Z",
}

// NumBuckets is the size of the ticker partition.
var NumBuckets = len(bucketLabels)

var bucketIndex = func() map[string]int {
	m := make(map[string]int, len(bucketLabels))
	for i, l := range bucketLabels {
		m[l] = i
	}
	return m
}()

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

// labelOf is a pure function from ticker to bucket label. ok is false
// when the first character is not a letter.
func labelOf(ticker string) (string, bool) {
	if ticker == "" {
		return "", false
	}
	c0 := upper(ticker[0])
	var c1 byte
	if len(ticker) > 1 {
		c1 = upper(ticker[1])
	}

	switch c0 {
	case 'E':
		if c1 >= 'A' && c1 <= 'E' {
			return "EA-E", true
		}
		return "EF-Z", true
	case 'I':
		if c1 >= 'A' && c1 <= 'E' {
			return "IA-E", true
		}
		return "IF-Z", true
	case 'P':
		if c1 >= 'A' && c1 <= 'E' {
			return "PA-E", true
		}
		return "PF-Z", true
	case 'S':
		switch {
		case c1 >= 'A' && c1 <= 'E':
			return "SA-E", true
		case c1 >= 'F' && c1 <= 'N':
			return "SF-N", true
		default:
			return "SO-Z", true
		}
	default:
		if c0 >= 'A' && c0 <= 'Z' {
			return string(c0), true
		}
		return "", false
	}
}

// BucketOf maps a ticker to its bucket index in [0, NumBuckets). ok is
// false for tickers outside the partition (non-letter initial).
func BucketOf(ticker string) (int, bool) {
	label, ok := labelOf(ticker)
	if !ok {
		return 0, false
	}
	return bucketIndex[label], true
}
