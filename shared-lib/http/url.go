package http

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
)

// CallbackAddress derives the local listen address and request path from an
// OAuth redirect URI such as http://localhost:5000/oauthCallback.
func CallbackAddress(redirectURI string) (addr, path string, err error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return "", "", fmt.Errorf("invalid redirect uri: %w", err)
	}
	if u.Hostname() == "" {
		return "", "", fmt.Errorf("redirect uri %q has no host", redirectURI)
	}

	port, err := portOf(u)
	if err != nil {
		return "", "", err
	}

	path = u.Path
	if path == "" {
		path = "/"
	}
	return net.JoinHostPort(u.Hostname(), strconv.Itoa(int(port))), path, nil
}

func portOf(u *url.URL) (uint16, error) {
	if p := u.Port(); p != "" {
		port, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return 0, fmt.Errorf("invalid port %q: %w", p, err)
		}
		return uint16(port), nil
	}

	switch u.Scheme {
	case "http":
		return 80, nil
	case "https":
		return 443, nil
	}
	return 0, fmt.Errorf("failed to extract port from the uri")
}
