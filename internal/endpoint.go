package jobtop

import (
	"net/url"
	"strings"
)

// MetricsURL builds {base}/metrics/{cluster}/{job}/{period}. Each path
// segment is escaped on its own; an empty period is left off so the
// server applies its default.
func MetricsURL(base *url.URL, cluster, job, period string) *url.URL {
	segments := []string{"metrics", cluster, job}
	if period != "" {
		segments = append(segments, period)
	}

	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}

	u := *base
	u.RawQuery = ""
	u.Fragment = ""
	basePath := strings.TrimSuffix(base.EscapedPath(), "/")
	u.RawPath = basePath + "/" + strings.Join(escaped, "/")
	u.Path = strings.TrimSuffix(base.Path, "/") + "/" + strings.Join(segments, "/")
	return &u
}
