package livesync

import (
	"fmt"
	"net/url"
)

// Path of the push endpoint on the agent host
const EndpointPath = "/ws"

// DeriveEndpoint rewrites an HTTP base URL to the corresponding push
// endpoint: http becomes ws, https becomes wss, a bare host defaults to ws.
func DeriveEndpoint(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if u.Host == "" {
		// "localhost:8000" parses as an opaque path; reparse with a scheme
		u, err = url.Parse("ws://" + base)
		if err != nil || u.Host == "" {
			return "", fmt.Errorf("derive push endpoint from %q", base)
		}
	}

	switch u.Scheme {
	case "http", "ws", "":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = EndpointPath
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}
