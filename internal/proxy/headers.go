package proxy

import "net/http"

// Hop-by-hop headers that must not be forwarded.
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailers",
	"Transfer-Encoding",
	"Upgrade",
}

func copyHeaders(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}

func stripHopByHop(h http.Header) {
	for _, key := range hopByHopHeaders {
		h.Del(key)
	}
}

func prepareUpstreamHeaders(original http.Header, apiKey string) http.Header {
	h := make(http.Header)
	copyHeaders(h, original)
	stripHopByHop(h)

	h.Del("Host")

	// Inject credentials only when the caller sent none of its own.
	if apiKey != "" && h.Get("X-Api-Key") == "" && h.Get("Authorization") == "" {
		h.Set("X-Api-Key", apiKey)
	}

	// Ask for uncompressed responses so the SSE frames can be scanned as-is.
	h.Del("Accept-Encoding")

	return h
}

func prepareClientHeaders(upstream http.Header) http.Header {
	h := make(http.Header)
	copyHeaders(h, upstream)
	stripHopByHop(h)
	// Compression was stripped upstream; length is set by the ResponseWriter.
	h.Del("Content-Encoding")
	h.Del("Content-Length")
	return h
}

// redactHeaders filters credentials before the headers are stored.
func redactHeaders(h http.Header) map[string][]string {
	m := make(map[string][]string, len(h))
	for k, v := range h {
		switch http.CanonicalHeaderKey(k) {
		case "Authorization", "X-Api-Key":
			m[k] = []string{"[REDACTED]"}
		default:
			m[k] = v
		}
	}
	return m
}
