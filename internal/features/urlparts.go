package features

import (
	"net/netip"
	"regexp"
	"strings"
	"unicode"
)

// URLParts - компоненты URL, используемые экстрактором
type URLParts struct {
	Scheme string
	Host   string // authority целиком: userinfo, host и port
	Path   string
}

// schemes that carry ";params" on the last path segment
var paramSchemes = map[string]bool{
	"": true, "ftp": true, "hdl": true, "prospero": true, "http": true,
	"imap": true, "https": true, "shttp": true, "rtsp": true, "rtsps": true,
	"rtspu": true, "sip": true, "sips": true, "mms": true, "sftp": true,
	"tel": true,
}

// ipvFuture - форма "vX.данные" внутри квадратных скобок (RFC 3986)
var ipvFuture = regexp.MustCompile(`^v[a-fA-F0-9]+\.[a-zA-Z0-9._~!$&'()*+,;=:]+$`)

// SplitURL раскладывает URL на scheme, authority и path без декодирования.
// Никогда не падает: для некорректного ввода компоненты остаются пустыми.
func SplitURL(raw string) URLParts {
	s := strings.TrimFunc(raw, isSpace)
	s = strings.Map(func(r rune) rune {
		if r == '\t' || r == '\r' || r == '\n' {
			return -1
		}
		return r
	}, s)
	s = strings.TrimLeftFunc(s, func(r rune) bool { return r <= ' ' })

	var parts URLParts

	if i := strings.IndexByte(s, ':'); i > 0 && isSchemeStart(s[0]) && isScheme(s[:i]) {
		parts.Scheme = strings.ToLower(s[:i])
		s = s[i+1:]
	}

	if strings.HasPrefix(s, "//") {
		rest := s[2:]
		end := strings.IndexAny(rest, "/?#")
		if end < 0 {
			end = len(rest)
		}
		parts.Host = rest[:end]
		s = rest[end:]

		open := strings.Contains(parts.Host, "[")
		closed := strings.Contains(parts.Host, "]")
		if open != closed {
			return URLParts{}
		}
		if open && !validBracketedHost(parts.Host) {
			return URLParts{}
		}
	}

	if i := strings.IndexByte(s, '#'); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[:i]
	}
	if paramSchemes[parts.Scheme] {
		s = stripParams(s)
	}
	parts.Path = s

	return parts
}

// validBracketedHost checks "[...]" after the userinfo: nothing may precede
// the bracket, only ":port" may follow it, and the content must be an IPv6
// or IPvFuture literal.
func validBracketedHost(authority string) bool {
	hostport := authority[strings.LastIndexByte(authority, '@')+1:]
	before, bracketed, found := strings.Cut(hostport, "[")
	if !found {
		return true
	}
	if before != "" {
		return false
	}
	host, port, _ := strings.Cut(bracketed, "]")
	if port != "" && !strings.HasPrefix(port, ":") {
		return false
	}
	if strings.HasPrefix(host, "v") {
		return ipvFuture.MatchString(host)
	}
	addr, err := netip.ParseAddr(host)
	return err == nil && addr.Is6()
}

// isSpace совпадает с пробельными символами Python: Unicode пробелы
// плюс разделители \x1c-\x1f
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

// stripParams drops ";params" from the last path segment.
func stripParams(path string) string {
	start := strings.LastIndexByte(path, '/')
	if start < 0 {
		start = 0
	}
	if i := strings.IndexByte(path[start:], ';'); i >= 0 {
		return path[:start+i]
	}
	return path
}

func isSchemeStart(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isScheme(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		case c == '+', c == '-', c == '.':
		default:
			return false
		}
	}
	return true
}
