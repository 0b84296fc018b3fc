package httputil

import (
	"net"
	"net/http"
	"strconv"
	"strings"
)

// GetClientIP returns the originating client address, preferring the first
// X-Forwarded-For entry, then X-Real-IP, then the host part of RemoteAddr.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// ParseIntParam parses an integer query parameter, returning defaultVal when
// it is empty or malformed.
func ParseIntParam(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return defaultVal
}

// ParseID parses a positive integer identifier. ok is false for anything else.
func ParseID(s string) (id int64, ok bool) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// ParseBoolParam accepts true/false/1/0 (any case) and treats everything else
// as false.
func ParseBoolParam(s string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && v
}
