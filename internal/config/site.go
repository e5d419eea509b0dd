package config

// SiteConfig holds site-specific overrides for a single host.
// This allows adjusting fetch behavior and screening strictness for
// sites that are known to need it (authenticated pages, noisy markup).
type SiteConfig struct {
	// Cookie is an HTTP cookie to send when fetching this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests.
	Headers map[string]string `yaml:"headers,omitempty"`

	// RiskThreshold overrides the global screening threshold for this
	// site. If zero, the global threshold is used. Useful for template-
	// heavy sites that legitimately trip the hidden-element warning.
	RiskThreshold int `yaml:"riskThreshold,omitempty"`

	// NoBrowser forces plain HTTP fetching for this site even when the
	// global config uses the browser.
	NoBrowser bool `yaml:"noBrowser,omitempty"`
}

// File represents the structure of the .websentry configuration file.
type File struct {
	// Sites maps hostnames to their site-specific configurations.
	// Keys are bare hostnames without scheme (e.g., "example.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains default site configuration applied to all
	// sites unless overridden in the site-specific configuration.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a specific hostname,
// merging the site-specific configuration with defaults.
//
// The returned Headers map is always a fresh copy: the struct copy of
// Defaults would otherwise alias the shared map, and merging one site's
// headers into it would leak them to every later lookup (and race when
// batch screening resolves sites concurrently).
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults

	if len(cf.Defaults.Headers) > 0 {
		result.Headers = make(map[string]string, len(cf.Defaults.Headers))
		for k, v := range cf.Defaults.Headers {
			result.Headers[k] = v
		}
	}

	if siteConfig, ok := cf.Sites[host]; ok {
		if siteConfig.Cookie != "" {
			result.Cookie = siteConfig.Cookie
		}
		if siteConfig.RiskThreshold != 0 {
			result.RiskThreshold = siteConfig.RiskThreshold
		}
		if siteConfig.NoBrowser {
			result.NoBrowser = true
		}
		if len(siteConfig.Headers) > 0 {
			if result.Headers == nil {
				result.Headers = make(map[string]string)
			}
			for k, v := range siteConfig.Headers {
				result.Headers[k] = v
			}
		}
	}

	return result
}
