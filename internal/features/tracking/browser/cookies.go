package browser

import (
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"dhl-tracking-proxy/internal/features/tracking/domain"
	"dhl-tracking-proxy/internal/features/tracking/ports"
)

// PersistCookies writes the page's current cookie jar to the store so the
// next session starts as a returning visitor.
func PersistCookies(page *rod.Page, store ports.CookieStore) error {
	cookies, err := page.Cookies(nil)
	if err != nil {
		return err
	}
	if len(cookies) == 0 {
		return nil
	}
	return store.Save(fromNetworkCookies(cookies))
}

// toCookieParams converts persisted cookies into the shape SetCookies wants.
func toCookieParams(cookies []domain.Cookie) []*proto.NetworkCookieParam {
	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		params = append(params, &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  proto.TimeSinceEpoch(c.Expires),
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
		})
	}
	return params
}

// fromNetworkCookies converts live browser cookies into the persisted shape.
func fromNetworkCookies(cookies []*proto.NetworkCookie) []domain.Cookie {
	out := make([]domain.Cookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, domain.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  float64(c.Expires),
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
		})
	}
	return out
}
