package codec

import "github.com/aerysproject/aerys/pkg/cookies"

// CookieFilter renders the Response's frozen cookie table into
// "set-cookie" header entries, per §4.4's cookie serialization rule,
// then forwards the header snapshot downstream. Non-header events pass
// through untouched.
type CookieFilter struct {
	downstream Sink
	cookies    cookies.Table
}

func (f *CookieFilter) Send(e Event) error {
	if e.Kind != EventHeaders {
		return f.downstream.Send(e)
	}

	h := e.Headers
	for name, entry := range f.cookies {
		h.Add("set-cookie", cookies.RenderSetCookie(name, entry))
	}

	if err := f.downstream.Send(e); err != nil {
		return wrapFilterErr("cookie", false, err)
	}
	return nil
}
