package handler

import (
	"net/http"
	"strings"
	"time"
)

// refreshCookieName is the carrier for the opaque refresh token. The cookie
// is HttpOnly and scoped to the auth routes so browser scripts and unrelated
// endpoints never see the long-lived credential.
const refreshCookieName = "refresh_token"

const refreshCookiePath = "/v1/auth"

// refreshCookie builds the cookie that moves the raw refresh token to the
// client. Its MaxAge matches the ledger record's expiry.
func refreshCookie(value, domain string, secure bool, ttl time.Duration) *http.Cookie {
	ck := &http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     refreshCookiePath,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
	if strings.TrimSpace(domain) != "" {
		ck.Domain = domain
	}
	if ttl > 0 {
		ck.Expires = time.Now().Add(ttl).UTC()
		ck.MaxAge = int(ttl.Seconds())
	}
	return ck
}

// deletionCookie clears the carrier on logout.
func deletionCookie(domain string, secure bool) *http.Cookie {
	ck := &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
	}
	if strings.TrimSpace(domain) != "" {
		ck.Domain = domain
	}
	return ck
}
