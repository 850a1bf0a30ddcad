// Package config loads the gateway's process-wide settings (spec §6) with
// github.com/spf13/viper instead of scattering os.Getenv calls across every
// package the way the teacher repo did.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// HTTPSettings bounds the upstream fetcher (C3).
type HTTPSettings struct {
	Timeout                 time.Duration
	MaxConnections          int
	MaxKeepaliveConnections int
	KeepaliveExpiry         time.Duration
	Retries                 int
}

// CacheSettings bounds the two-tier cache (C2).
type CacheSettings struct {
	TTLM3U8     time.Duration
	TTLSegment  time.Duration
	Namespace   string
	SegmentSlots int // LRU entry ceiling for the segment tier
}

// ProxySettings bounds the rewriter and proxy endpoint (C1, C5).
type ProxySettings struct {
	BasePath          string
	URLSafeChars      string
	MaxRedirects      int
	BufferSize        int
	PrefetchSegments  int
	InjectStartOffset bool
}

// StreamExtraction bounds the extraction adapter (C6).
type StreamExtraction struct {
	SupportedProtocols  []string
	M3U8CheckString     string
	MaxStreams          int
	DefaultVideoQuality string
	AudioQualityPrefix  string
	UnknownHeightLabel  string
}

// ResponseSettings carries localizable error strings (§7).
type ResponseSettings struct {
	ErrorMessages map[string]string
}

// Config is the immutable, typed settings object injected into every
// other component.
type Config struct {
	HTTP      HTTPSettings
	Cache     CacheSettings
	Proxy     ProxySettings
	Extract   StreamExtraction
	Response  ResponseSettings
	RateLimit RateLimitSettings
}

// RateLimitSettings configures the C11 hook. Disabled unless explicitly
// turned on — spec §6 calls for "rate limiting (hooks only)".
type RateLimitSettings struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
}

const envPrefix = "HLSGATE"

// Load reads settings from environment variables prefixed HLSGATE_ (e.g.
// HLSGATE_HTTP_TIMEOUT, HLSGATE_CACHE_TTL_M3U8), falling back to the
// defaults named in spec.md §6.
func Load() *Config {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http.timeout", 20*time.Second)
	v.SetDefault("http.max_connections", 100)
	v.SetDefault("http.max_keepalive_connections", 100)
	v.SetDefault("http.keepalive_expiry", 90*time.Second)
	v.SetDefault("http.retries", 3)

	v.SetDefault("cache.ttl_m3u8", 60*time.Second)
	v.SetDefault("cache.ttl_segment", 300*time.Second)
	v.SetDefault("cache.namespace", "hlsgate")
	v.SetDefault("cache.segment_slots", 2048)

	v.SetDefault("proxy.base_path", "proxy")
	v.SetDefault("proxy.url_safe_chars", "")
	v.SetDefault("proxy.max_redirects", 5)
	v.SetDefault("proxy.buffer_size", 64*1024)
	v.SetDefault("proxy.prefetch_segments", 3)
	v.SetDefault("proxy.inject_start_offset", true)

	v.SetDefault("extract.supported_protocols", []string{"hls"})
	v.SetDefault("extract.m3u8_check_string", ".m3u8")
	v.SetDefault("extract.max_streams", 50)
	v.SetDefault("extract.default_video_quality", "unknown")
	v.SetDefault("extract.audio_quality_prefix", "audio-")
	v.SetDefault("extract.unknown_height_label", "unknown")

	v.SetDefault("ratelimit.enabled", false)
	v.SetDefault("ratelimit.requests_per_second", 10.0)
	v.SetDefault("ratelimit.burst", 20)

	return &Config{
		HTTP: HTTPSettings{
			Timeout:                 v.GetDuration("http.timeout"),
			MaxConnections:          v.GetInt("http.max_connections"),
			MaxKeepaliveConnections: v.GetInt("http.max_keepalive_connections"),
			KeepaliveExpiry:         v.GetDuration("http.keepalive_expiry"),
			Retries:                 v.GetInt("http.retries"),
		},
		Cache: CacheSettings{
			TTLM3U8:      v.GetDuration("cache.ttl_m3u8"),
			TTLSegment:   v.GetDuration("cache.ttl_segment"),
			Namespace:    v.GetString("cache.namespace"),
			SegmentSlots: v.GetInt("cache.segment_slots"),
		},
		Proxy: ProxySettings{
			BasePath:          v.GetString("proxy.base_path"),
			URLSafeChars:      v.GetString("proxy.url_safe_chars"),
			MaxRedirects:      v.GetInt("proxy.max_redirects"),
			BufferSize:        v.GetInt("proxy.buffer_size"),
			PrefetchSegments:  v.GetInt("proxy.prefetch_segments"),
			InjectStartOffset: v.GetBool("proxy.inject_start_offset"),
		},
		Extract: StreamExtraction{
			SupportedProtocols:  v.GetStringSlice("extract.supported_protocols"),
			M3U8CheckString:     v.GetString("extract.m3u8_check_string"),
			MaxStreams:          v.GetInt("extract.max_streams"),
			DefaultVideoQuality: v.GetString("extract.default_video_quality"),
			AudioQualityPrefix:  v.GetString("extract.audio_quality_prefix"),
			UnknownHeightLabel:  v.GetString("extract.unknown_height_label"),
		},
		Response: ResponseSettings{
			ErrorMessages: map[string]string{
				"upstream_error":   "upstream error",
				"request_timeout":  "request timeout",
				"invalid_url":      "invalid URL",
				"not_found":        "not found",
				"extraction_failed": "extraction failed",
				"internal":         "internal server error",
			},
		},
		RateLimit: RateLimitSettings{
			Enabled:           v.GetBool("ratelimit.enabled"),
			RequestsPerSecond: v.GetFloat64("ratelimit.requests_per_second"),
			Burst:             v.GetInt("ratelimit.burst"),
		},
	}
}
