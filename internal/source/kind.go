package source

import (
	"net/url"
	"strings"
)

// Kind identifies how the engine must open a media URI.
type Kind int

const (
	KindProgressive Kind = iota
	KindHLS
	KindDASH
	KindRTMP
	KindRTSP
)

func (k Kind) String() string {
	switch k {
	case KindProgressive:
		return "progressive"
	case KindHLS:
		return "hls"
	case KindDASH:
		return "dash"
	case KindRTMP:
		return "rtmp"
	case KindRTSP:
		return "rtsp"
	default:
		return "unknown"
	}
}

// Live reports whether the kind is a streaming protocol that bypasses the
// engine cache.
func (k Kind) Live() bool {
	return k == KindRTMP || k == KindRTSP
}

// KindMatcher recognizes one source kind.
type KindMatcher interface {
	// Match returns true if the parsed URI belongs to this kind.
	Match(u *url.URL, raw string) bool

	Kind() Kind
}

type schemeMatcher struct {
	scheme string
	kind   Kind
}

func (m schemeMatcher) Match(u *url.URL, _ string) bool {
	return u != nil && strings.EqualFold(u.Scheme, m.scheme)
}

func (m schemeMatcher) Kind() Kind { return m.kind }

type extensionMatcher struct {
	ext  string
	kind Kind
}

func (m extensionMatcher) Match(_ *url.URL, raw string) bool {
	return strings.Contains(strings.ToLower(raw), m.ext)
}

func (m extensionMatcher) Kind() Kind { return m.kind }

// Registry holds kind matchers in priority order. The first match wins and
// unmatched URIs are progressive.
type Registry struct {
	matchers []KindMatcher
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		matchers: make([]KindMatcher, 0),
	}
}

// DefaultRegistry recognizes rtmp and rtsp by scheme, then DASH manifests
// (".mpd") and HLS playlists (".m3u8") anywhere in the URI.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(schemeMatcher{scheme: "rtmp", kind: KindRTMP})
	r.Register(schemeMatcher{scheme: "rtsp", kind: KindRTSP})
	r.Register(extensionMatcher{ext: ".mpd", kind: KindDASH})
	r.Register(extensionMatcher{ext: ".m3u8", kind: KindHLS})
	return r
}

// Register appends a matcher with the lowest priority so far.
func (r *Registry) Register(m KindMatcher) {
	r.matchers = append(r.matchers, m)
}

// Infer returns the kind of raw. A URI that fails to parse is still matched
// by extension.
func (r *Registry) Infer(raw string) Kind {
	u, err := url.Parse(raw)
	if err != nil {
		u = nil
	}
	for _, m := range r.matchers {
		if m.Match(u, raw) {
			return m.Kind()
		}
	}
	return KindProgressive
}

// Kinds lists the registered kinds in priority order.
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, len(r.matchers))
	for i, m := range r.matchers {
		kinds[i] = m.Kind()
	}
	return kinds
}
