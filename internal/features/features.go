package features

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Count is the number of fields in a Vector.
const Count = 10

// names в каноническом порядке. Порядок должен совпадать с Vector.Values.
var names = [Count]string{
	"url_len",
	"host_len",
	"path_len",
	"num_dots",
	"num_hyphens",
	"num_at",
	"num_digits",
	"uses_https",
	"has_ip_host",
	"entropy_url",
}

// Vector - признаки одного URL
type Vector struct {
	URLLen     int     `json:"url_len"`
	HostLen    int     `json:"host_len"`
	PathLen    int     `json:"path_len"`
	NumDots    int     `json:"num_dots"`
	NumHyphens int     `json:"num_hyphens"`
	NumAt      int     `json:"num_at"`
	NumDigits  int     `json:"num_digits"`
	UsesHTTPS  int     `json:"uses_https"`
	HasIPHost  int     `json:"has_ip_host"`
	EntropyURL float64 `json:"entropy_url"`
}

// Names returns the feature names in canonical order.
func Names() []string {
	out := make([]string, Count)
	copy(out, names[:])
	return out
}

// Values returns the vector as a model input row in canonical order.
// This is the only place where the order of fields is decided.
func (v Vector) Values() []float64 {
	return []float64{
		float64(v.URLLen),
		float64(v.HostLen),
		float64(v.PathLen),
		float64(v.NumDots),
		float64(v.NumHyphens),
		float64(v.NumAt),
		float64(v.NumDigits),
		float64(v.UsesHTTPS),
		float64(v.HasIPHost),
		v.EntropyURL,
	}
}

// Extract вычисляет вектор признаков для URL.
// Функция чистая и определена для любой строки, включая пустую.
func Extract(rawURL string) Vector {
	parts := SplitURL(rawURL)

	v := Vector{
		URLLen:     utf8.RuneCountInString(rawURL),
		HostLen:    utf8.RuneCountInString(parts.Host),
		PathLen:    utf8.RuneCountInString(parts.Path),
		NumDots:    strings.Count(rawURL, "."),
		NumHyphens: strings.Count(rawURL, "-"),
		NumAt:      strings.Count(rawURL, "@"),
		NumDigits:  countDigits(rawURL),
		EntropyURL: Entropy(rawURL),
	}
	if parts.Scheme == "https" {
		v.UsesHTTPS = 1
	}
	if IsIPv4Host(parts.Host) {
		v.HasIPHost = 1
	}
	return v
}

// ExtractBatch extracts features for every URL, preserving order.
func ExtractBatch(urls []string) []Vector {
	out := make([]Vector, len(urls))
	for i, u := range urls {
		out[i] = Extract(u)
	}
	return out
}

// ExtractNullable is ExtractBatch for columns with absent entries: nil is
// treated as the empty string.
func ExtractNullable(urls []*string) []Vector {
	out := make([]Vector, len(urls))
	for i, u := range urls {
		if u == nil {
			out[i] = Extract("")
			continue
		}
		out[i] = Extract(*u)
	}
	return out
}

// Matrix builds a row-major feature matrix.
func Matrix(vectors []Vector) [][]float64 {
	rows := make([][]float64, len(vectors))
	for i, v := range vectors {
		rows[i] = v.Values()
	}
	return rows
}

// Entropy - энтропия Шеннона (log2) по символам строки. Для "" равна 0.
func Entropy(s string) float64 {
	if s == "" {
		return 0
	}

	// counts идут в порядке первого появления символа, чтобы сумма
	// с плавающей точкой не зависела от порядка обхода map
	index := make(map[rune]int)
	var counts []int
	total := 0
	for _, r := range s {
		i, ok := index[r]
		if !ok {
			i = len(counts)
			index[r] = i
			counts = append(counts, 0)
		}
		counts[i]++
		total++
	}

	var entropy float64
	for _, c := range counts {
		p := float64(c) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// IsIPv4Host reports whether host is a dotted-quad IPv4 literal.
func IsIPv4Host(host string) bool {
	host = strings.TrimFunc(host, isSpace)
	if host == "" {
		return false
	}

	groups := strings.Split(host, ".")
	if len(groups) != 4 {
		return false
	}
	for _, g := range groups {
		n, size := 0, 0
		for _, r := range g {
			if !unicode.IsDigit(r) {
				return false
			}
			n = n*10 + digitValue(r)
			size++
		}
		if size < 1 || size > 3 || n > 255 {
			return false
		}
	}
	return true
}

// digitValue returns the value of a Unicode decimal digit. Digits of every
// script are laid out as contiguous runs starting at zero.
func digitValue(r rune) int {
	start := r
	for unicode.IsDigit(start - 1) {
		start--
	}
	return int(r-start) % 10
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
