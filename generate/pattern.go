package generate

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

type (
	patternKind int

	// Pattern is one parsed <...> token from a load template.
	Pattern struct {
		kind  patternKind
		token string

		literal string

		start int64

		minLen, maxLen int

		minWords, maxWords int
		words              []string

		min, max float64

		minSize, maxSize int
	}

	// counterTable holds increment sequences, keyed by the full token text.
	counterTable map[string]int64
)

const (
	kindExact patternKind = iota
	kindIncrement
	kindString
	kindText
	kindInt
	kindBigint
	kindFloat
	kindBoolean
	kindArray
	kindArrayFloat
)

var trailingPunct = []string{".", "!", "?", ",", ";"}

// ParsePattern parses the payload of one <...> token. An unrecognized type
// keyword yields an exact token carrying the whole payload verbatim.
func ParsePattern(token string, wordlist []string) (*Pattern, error) {
	parts := strings.Split(token, "/")
	p := &Pattern{token: token}

	switch parts[0] {
	case "increment":
		p.kind = kindIncrement
		p.start = 1
		if len(parts) > 2 {
			return nil, fmt.Errorf("%w: increment takes at most one argument: <%s>", ErrBadPattern, token)
		}
		if len(parts) == 2 {
			start, err := strconv.ParseInt(parts[1], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: parsing increment start failed: <%s>", ErrBadPattern, token)
			}
			p.start = start
		}

	case "string":
		p.kind = kindString
		min, max, err := intPair(parts[1:], token)
		if err != nil {
			return nil, err
		}
		p.minLen, p.maxLen = int(min), int(max)

	case "text":
		p.kind = kindText
		if len(parts) != 3 && len(parts) != 4 {
			return nil, fmt.Errorf("%w: text takes two or three arguments: <%s>", ErrBadPattern, token)
		}
		min, max, err := intPair(parts[1:3], token)
		if err != nil {
			return nil, err
		}
		p.minWords, p.maxWords = int(min), int(max)
		p.words = wordlist
		if len(parts) == 4 {
			words, err := loadWordlist(parts[3])
			if err != nil {
				return nil, fmt.Errorf("%w: loading wordlist failed: <%s>: %v", ErrBadPattern, token, err)
			}
			p.words = words
		}

	case "int":
		p.kind = kindInt
		min, max, err := intPair(parts[1:], token)
		if err != nil {
			return nil, err
		}
		p.min, p.max = float64(min), float64(max)

	case "bigint":
		p.kind = kindBigint
		min, max, err := intPair(parts[1:], token)
		if err != nil {
			return nil, err
		}
		p.min, p.max = float64(min), float64(max)

	case "float":
		p.kind = kindFloat
		if len(parts) != 3 {
			return nil, fmt.Errorf("%w: float takes two arguments: <%s>", ErrBadPattern, token)
		}
		min, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: parsing float bound failed: <%s>", ErrBadPattern, token)
		}
		max, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: parsing float bound failed: <%s>", ErrBadPattern, token)
		}
		p.min, p.max = min, max

	case "boolean":
		p.kind = kindBoolean
		if len(parts) != 1 {
			return nil, fmt.Errorf("%w: boolean takes no arguments: <%s>", ErrBadPattern, token)
		}

	case "array", "array_float":
		p.kind = kindArray
		if parts[0] == "array_float" {
			p.kind = kindArrayFloat
		}
		if len(parts) != 5 {
			return nil, fmt.Errorf("%w: %s takes four arguments: <%s>", ErrBadPattern, parts[0], token)
		}
		minSize, maxSize, err := intPair(parts[1:3], token)
		if err != nil {
			return nil, err
		}
		p.minSize, p.maxSize = int(minSize), int(maxSize)
		minV, err := strconv.ParseFloat(parts[3], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: parsing array bound failed: <%s>", ErrBadPattern, token)
		}
		maxV, err := strconv.ParseFloat(parts[4], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: parsing array bound failed: <%s>", ErrBadPattern, token)
		}
		p.min, p.max = minV, maxV

	default:
		p.kind = kindExact
		p.literal = token
	}

	return p, nil
}

func intPair(args []string, token string) (int64, int64, error) {
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("%w: expected two integer arguments: <%s>", ErrBadPattern, token)
	}
	min, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: parsing integer argument failed: <%s>", ErrBadPattern, token)
	}
	max, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: parsing integer argument failed: <%s>", ErrBadPattern, token)
	}
	return min, max, nil
}

// Generate produces one concrete value for this pattern.
func (p *Pattern) Generate(rng *rand.Rand, counters counterTable) string {
	switch p.kind {
	case kindExact:
		return strings.ReplaceAll(p.literal, "'", "\\'")

	case kindIncrement:
		if _, ok := counters[p.token]; !ok {
			counters[p.token] = p.start - 1
		}
		counters[p.token]++
		return strconv.FormatInt(counters[p.token], 10)

	case kindString:
		n := p.minLen + intn(rng, p.maxLen-p.minLen+1)
		b := make([]byte, n)
		for i := range b {
			b[i] = byte('a' + rng.Intn(26))
		}
		return string(b)

	case kindText:
		return p.generateText(rng)

	case kindInt, kindBigint:
		return strconv.FormatInt(randInt64(rng, int64(p.min), int64(p.max)), 10)

	case kindFloat:
		return strconv.FormatFloat(randFloat(rng, p.min, p.max, 1), 'f', 1, 64)

	case kindBoolean:
		return strconv.Itoa(rng.Intn(2))

	case kindArray, kindArrayFloat:
		n := p.minSize + intn(rng, p.maxSize-p.minSize+1)
		vals := make([]string, n)
		for i := range vals {
			if p.kind == kindArray {
				vals[i] = strconv.FormatInt(randInt64(rng, int64(p.min), int64(p.max)), 10)
			} else {
				vals[i] = strconv.FormatFloat(randFloat(rng, p.min, p.max, 2), 'f', 2, 64)
			}
		}
		return strings.Join(vals, ",")
	}

	return ""
}

func (p *Pattern) generateText(rng *rand.Rand) string {
	count := p.minWords + intn(rng, p.maxWords-p.minWords+1)
	if count <= 0 {
		return ""
	}

	words := make([]string, count)
	for i := range words {
		words[i] = p.words[rng.Intn(len(p.words))]
	}

	// A sentence is the span following a period; its first word is
	// capitalized and the final word of the text always closes one.
	startOfSentence := true
	for i := range words {
		if startOfSentence {
			words[i] = capitalize(words[i])
			startOfSentence = false
		}

		if i == count-1 {
			words[i] += "."
			break
		}

		if rng.Float64() < 0.2 {
			punct := trailingPunct[rng.Intn(len(trailingPunct))]
			words[i] += punct
			if punct == "." {
				startOfSentence = true
			}
		}
	}

	return strings.Join(words, " ")
}

func capitalize(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}

func intn(rng *rand.Rand, n int) int {
	if n <= 1 {
		return 0
	}
	return rng.Intn(n)
}

func randInt64(rng *rand.Rand, min, max int64) int64 {
	if max <= min {
		return min
	}
	return min + rng.Int63n(max-min+1)
}

func randFloat(rng *rand.Rand, min, max float64, decimals int) float64 {
	v := min + rng.Float64()*(max-min)
	shift := 1.0
	for i := 0; i < decimals; i++ {
		shift *= 10
	}
	return float64(int64(v*shift+0.5)) / shift
}
