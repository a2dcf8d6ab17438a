// Package cookie is the single cookie codec of the gateway.
package cookie

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"

	"github.com/sua-a1/cram-app-sub001/app/domain"
	"github.com/sua-a1/cram-app-sub001/app/port"
)

// SecureCookieAdapter signs and encrypts cookie values with gorilla/securecookie.
// Values are JSON encoded.
type SecureCookieAdapter struct {
	codec  *securecookie.SecureCookie
	secure bool
	now    func() time.Time
}

// NewSecureCookieAdapter builds the codec. maxAge bounds the signed timestamp
// of every cookie it accepts; use the longest cookie lifetime.
func NewSecureCookieAdapter(hashKey, blockKey []byte, maxAge time.Duration, secure bool) port.CookieAdapter {
	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(int(maxAge.Seconds()))
	codec.SetSerializer(securecookie.JSONEncoder{})

	return &SecureCookieAdapter{codec: codec, secure: secure, now: time.Now}
}

func (a *SecureCookieAdapter) Read(r *http.Request, name string, dst interface{}) error {
	c, err := r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return domain.ErrCookieNotFound
		}
		return fmt.Errorf("%w: %v", domain.ErrCookieInvalid, err)
	}

	if err := a.codec.Decode(name, c.Value, dst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCookieInvalid, err)
	}
	return nil
}

func (a *SecureCookieAdapter) Write(w http.ResponseWriter, name string, value interface{}, maxAge time.Duration) error {
	encoded, err := a.codec.Encode(name, value)
	if err != nil {
		return fmt.Errorf("failed to encode cookie %s: %w", name, err)
	}

	http.SetCookie(w, a.cookie(name, encoded, int(maxAge.Seconds()), a.now().Add(maxAge)))
	return nil
}

func (a *SecureCookieAdapter) Clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, a.cookie(name, "", -1, time.Unix(0, 0)))
}

func (a *SecureCookieAdapter) cookie(name, value string, maxAge int, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  expires.UTC(),
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
