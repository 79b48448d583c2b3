package oracle

import "github.com/codeGROOVE-dev/oracle/pkg/httpclient"

// DefaultUserAgent identifies the engine to public geocoders.
const DefaultUserAgent = "oracle-locations/1.0 (+https://github.com/codeGROOVE-dev/oracle)"

// Option configures an Engine.
type Option func(*OptionHolder)

// WithMapsAPIKey enables Google Maps place search and timezone lookup.
func WithMapsAPIKey(key string) Option {
	return func(o *OptionHolder) {
		o.mapsAPIKey = key
	}
}

// WithGeminiAPIKey enables Gemini place search through the Gemini API.
func WithGeminiAPIKey(key string) Option {
	return func(o *OptionHolder) {
		o.geminiAPIKey = key
	}
}

// WithGeminiModel sets the Gemini model.
func WithGeminiModel(model string) Option {
	return func(o *OptionHolder) {
		o.geminiModel = model
	}
}

// WithGCPProject enables Gemini place search through Vertex AI.
func WithGCPProject(projectID string) Option {
	return func(o *OptionHolder) {
		o.gcpProject = projectID
	}
}

// WithCacheDir sets the directory for the persistent response cache.
func WithCacheDir(dir string) Option {
	return func(o *OptionHolder) {
		o.cacheDir = dir
	}
}

// WithNoCache disables response caching.
func WithNoCache() Option {
	return func(o *OptionHolder) {
		o.noCache = true
	}
}

// WithMemoryOnlyCache keeps cached responses in memory only (for the server).
func WithMemoryOnlyCache() Option {
	return func(o *OptionHolder) {
		o.memoryOnlyCache = true
	}
}

// WithNominatimURL points place search at a self-hosted Nominatim.
func WithNominatimURL(u string) Option {
	return func(o *OptionHolder) {
		o.nominatimURL = u
	}
}

// WithTimeAPIURL overrides the timeapi.io endpoint.
func WithTimeAPIURL(u string) Option {
	return func(o *OptionHolder) {
		o.timeAPIURL = u
	}
}

// WithUserAgent sets the client identifier sent to public geocoders.
func WithUserAgent(ua string) Option {
	return func(o *OptionHolder) {
		o.userAgent = ua
	}
}

// WithOffline disables every network provider; lookups use the gazetteer,
// the tzf polygons and the geographic estimator only.
func WithOffline() Option {
	return func(o *OptionHolder) {
		o.offline = true
	}
}

// WithTransport replaces the HTTP transport beneath retries and caching.
func WithTransport(d httpclient.Doer) Option {
	return func(o *OptionHolder) {
		o.transport = d
	}
}

// OptionHolder holds configuration options.
type OptionHolder struct {
	transport       httpclient.Doer
	mapsAPIKey      string
	geminiAPIKey    string
	geminiModel     string
	gcpProject      string
	cacheDir        string
	nominatimURL    string
	timeAPIURL      string
	userAgent       string
	noCache         bool
	memoryOnlyCache bool
	offline         bool
}
