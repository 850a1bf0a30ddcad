// Package rewriter implements C1: rewriting an HLS manifest so every media
// reference and every URI="..." attribute routes back through the gateway.
package rewriter

import (
	"bufio"
	"net/url"
	"regexp"
	"strings"
)

// Options tunes the rewrite (spec.md §4.1/§9).
type Options struct {
	// SafeChars is the percent-encoding safe set; default is empty (encode
	// everything not unreserved), per spec.
	SafeChars string
	// InjectStartOffset controls the unconditional #EXT-X-START:TIME-OFFSET=0
	// prepend when absent (spec.md §9 open question, made configurable).
	InjectStartOffset bool
	// BufferSize sets the scanner's initial line-buffer capacity
	// (config.ProxySettings.BufferSize); zero falls back to 64KiB.
	BufferSize int
}

const defaultBufferSize = 64 * 1024
const maxLineSize = 4 * 1024 * 1024

const startOffsetLine = "#EXT-X-START:TIME-OFFSET=0,PRECISE=YES"

// uriAttr matches a URI="..." attribute value. HLS directive values are
// bare (no escaped quotes), so a plain non-greedy match to the next quote
// is correct per spec.md §4.1's "nested quotes are not supported" note.
var uriAttr = regexp.MustCompile(`URI="([^"]*)"`)

// Rewrite transforms body per spec.md §4.1's line-by-line algorithm. base
// must be an absolute URL; prefix is prepended to every rewritten
// reference (e.g. "https://gw.example.com/proxy?url=").
func Rewrite(body string, base *url.URL, prefix string, opts Options) (string, error) {
	var out strings.Builder

	hasStart := strings.Contains(body, "#EXT-X-START")
	if opts.InjectStartOffset && !hasStart {
		out.WriteString(startOffsetLine)
		out.WriteString("\n")
	}

	scanner := bufio.NewScanner(strings.NewReader(body))
	// Manifests can carry very long lines (base64 key data, long query
	// strings); raise the scanner's buffer ceiling accordingly.
	bufSize := opts.BufferSize
	if bufSize <= 0 {
		bufSize = defaultBufferSize
	}
	maxSize := maxLineSize
	if bufSize > maxSize {
		maxSize = bufSize
	}
	buf := make([]byte, 0, bufSize)
	scanner.Buffer(buf, maxSize)

	first := true
	for scanner.Scan() {
		if !first {
			out.WriteString("\n")
		}
		first = false

		line := scanner.Text()
		out.WriteString(rewriteLine(line, base, prefix, opts))
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	// Preserve a trailing newline if the input had one.
	if strings.HasSuffix(body, "\n") {
		out.WriteString("\n")
	}

	return out.String(), nil
}

func rewriteLine(line string, base *url.URL, prefix string, opts Options) string {
	if strings.TrimSpace(line) == "" {
		return line
	}

	if strings.HasPrefix(line, "#") {
		return uriAttr.ReplaceAllStringFunc(line, func(m string) string {
			sub := uriAttr.FindStringSubmatch(m)
			value := sub[1]
			rewritten := proxyURL(value, base, prefix, opts)
			return `URI="` + rewritten + `"`
		})
	}

	return proxyURL(strings.TrimSpace(line), base, prefix, opts)
}

func proxyURL(raw string, base *url.URL, prefix string, opts Options) string {
	// Already routed through this gateway (e.g. re-rewriting a manifest
	// that was already rewritten with the same prefix) — leave it as-is.
	// Without this guard, re-encoding an already-prefixed absolute URL
	// would double percent-encode it, violating the rewrite-idempotence
	// invariant.
	if prefix != "" && strings.HasPrefix(raw, prefix) {
		return raw
	}
	resolved := resolve(base, raw)
	return prefix + percentEncode(resolved, opts.SafeChars)
}

// resolve implements spec.md §4.1 step 3: absolute references pass through
// unchanged; relative ones resolve against base per RFC 3986 §5.
func resolve(base *url.URL, ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if u.IsAbs() {
		return u.String()
	}
	if base == nil {
		return u.String()
	}
	return base.ResolveReference(u).String()
}

// PercentEncode is the exported form of percentEncode, reused by other
// components (e.g. extract) that rewrite a single absolute URL through the
// proxy prefix without a full manifest body.
func PercentEncode(s string, safeChars string) string {
	return percentEncode(s, safeChars)
}

// percentEncode encodes every byte not in the unreserved set and not in
// safeChars, matching spec.md §4.1 step 4's "explicitly configured safe
// set (default empty)".
func percentEncode(s string, safeChars string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) || strings.IndexByte(safeChars, c) >= 0 {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hexDigit(c >> 4))
		b.WriteByte(hexDigit(c & 0x0f))
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z':
		return true
	case c >= 'a' && c <= 'z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '-' || c == '.' || c == '_' || c == '~':
		return true
	}
	return false
}

func hexDigit(b byte) byte {
	const hex = "0123456789ABCDEF"
	return hex[b]
}
