package config

// SiteConfig holds settings for a single host.
// It lets operators warm sites that sit behind basic auth, preview cookies
// or header-based routing without passing secrets on the command line.
type SiteConfig struct {
	// Cookie is an HTTP cookie sent with every request to this host.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers included in requests to this host.
	Headers map[string]string `yaml:"headers,omitempty"`

	// UserAgent overrides the global User-Agent for this host.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Blacklist holds additional substring patterns that are never fetched.
	Blacklist []string `yaml:"blacklist,omitempty"`

	// Seeds are extra URLs enqueued right after the base URL.
	Seeds []string `yaml:"seeds,omitempty"`
}

// File represents the structure of the .cachewarmer configuration file.
type File struct {
	// Sites maps hosts (e.g. "www.example.com" or "localhost:8080")
	// to their site-specific configurations.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every host unless overridden in Sites.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a host, merged over the defaults.
// Scalars and lists from the site entry replace the defaults; headers are merged
// with site values winning.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults

	siteConfig, ok := cf.Sites[host]
	if !ok {
		return result
	}

	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if siteConfig.UserAgent != "" {
		result.UserAgent = siteConfig.UserAgent
	}
	if len(siteConfig.Headers) > 0 {
		merged := make(map[string]string, len(result.Headers)+len(siteConfig.Headers))
		for k, v := range result.Headers {
			merged[k] = v
		}
		for k, v := range siteConfig.Headers {
			merged[k] = v
		}
		result.Headers = merged
	}
	if len(siteConfig.Blacklist) > 0 {
		result.Blacklist = siteConfig.Blacklist
	}
	if len(siteConfig.Seeds) > 0 {
		result.Seeds = siteConfig.Seeds
	}

	return result
}
