// Package redirect computes same-origin redirect targets for the
// post-mutation bounce back to a listing view. It exists to keep result
// flags flowing through redirects without ever honoring a foreign host.
package redirect

import "net/url"

// Set wraps a flag value for Safe. A nil value means the flag is omitted
// entirely rather than written as empty.
func Set(v string) *string {
	return &v
}

// Safe resolves where a mutating endpoint should redirect to. referer is the
// inbound referring URL (may be empty), host is the current request's host,
// fallback is the path used when the referer is missing, unparsable, or
// belongs to another origin. Supplied flags overwrite same-named query
// parameters from the referer; all other parameters are preserved.
func Safe(referer, host, fallback string, flags map[string]*string) string {
	if referer == "" {
		return fallback
	}
	u, err := url.Parse(referer)
	if err != nil {
		return fallback
	}

	path := u.Path
	query := u.Query()
	if u.Scheme != "" && u.Host != "" && u.Host != host {
		// Cross-origin referer: keep nothing from it.
		path = fallback
		query = url.Values{}
	}
	if path == "" {
		path = fallback
	}

	for name, val := range flags {
		if val == nil {
			continue
		}
		query.Set(name, *val)
	}

	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}
