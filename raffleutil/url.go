package raffleutil

import (
	"net/url"
	"path"
)

// AddrToURL converts an address in host:port format to an http URL
func AddrToURL(addr string, secure bool) url.URL {
	scheme := "http"
	if secure {
		scheme = "https"
	}
	return url.URL{
		Scheme: scheme,
		Host:   addr,
	}
}

// AddToURLPath resolves baseURL to the given path.
func AddToURLPath(baseURL url.URL, p string) url.URL {
	resolved := baseURL
	resolved.Path = path.Join(baseURL.Path, p)
	return resolved
}
