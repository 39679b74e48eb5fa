package api

import (
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
)

var (
	errMissingAuthorization = errors.New("missing authorization header")
	errBadAuthorization     = errors.New("bad auth header")
)

const bearerPrefix = "Bearer "

// bearerTokenFromString returns the JWT of an Authorization header value.
func bearerTokenFromString(raw string) (string, error) {
	raw = strings.Trim(raw, " ")
	if raw == "" {
		return "", errMissingAuthorization
	}
	token, ok := strings.CutPrefix(raw, bearerPrefix)
	if !ok || token == "" || strings.Count(token, ".") != 2 {
		return "", errBadAuthorization
	}
	return token, nil
}

// forwardedToken finds the caller's session token for the summarize relay.
// The Authorization header wins, with or without the Bearer prefix. Then the
// session cookies are tried: sb-access-token, sb-<projectRef>-auth-token and
// finally any sb-*-auth-token cookie. The token is not verified here.
func forwardedToken(req *http.Request, projectRef string) string {
	if h := strings.TrimSpace(req.Header.Get(echo.HeaderAuthorization)); h != "" {
		if token := strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")); token != "" {
			return token
		}
	}

	names := []string{"sb-access-token"}
	if projectRef != "" {
		names = append(names, "sb-"+projectRef+"-auth-token")
	}
	for _, name := range names {
		if c, err := req.Cookie(name); err == nil && c.Value != "" {
			if token := cookieToken(c.Value); token != "" {
				return token
			}
		}
	}
	for _, c := range req.Cookies() {
		if strings.Contains(c.Name, "sb-") && strings.Contains(c.Name, "-auth-token") && c.Value != "" {
			if token := cookieToken(c.Value); token != "" {
				return token
			}
		}
	}
	return ""
}

type sessionCookie struct {
	AccessToken string `json:"access_token"`
}

// cookieToken unwraps a session cookie value. Plain values are returned as
// they are; JSON sessions (optionally URL-escaped or base64- prefixed) yield
// their access_token.
func cookieToken(value string) string {
	if unescaped, err := url.PathUnescape(value); err == nil {
		value = unescaped
	}
	if rest, ok := strings.CutPrefix(value, "base64-"); ok {
		decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(rest, "="))
		if err != nil {
			return ""
		}
		value = string(decoded)
	}
	if !strings.HasPrefix(strings.TrimSpace(value), "{") {
		return value
	}
	var s sessionCookie
	if err := sonic.UnmarshalString(value, &s); err != nil {
		return ""
	}
	return s.AccessToken
}
