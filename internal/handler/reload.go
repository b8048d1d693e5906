package handler

import (
	"net/http"
	"sync/atomic"
)

// Reloadable serves whichever handler was stored last. Requests already in
// flight finish on the handler they started with.
type Reloadable struct {
	current atomic.Pointer[http.Handler]
}

// NewReloadable creates a Reloadable serving h
func NewReloadable(h http.Handler) *Reloadable {
	r := &Reloadable{}
	r.Store(h)
	return r
}

// Store replaces the handler for new requests
func (r *Reloadable) Store(h http.Handler) {
	r.current.Store(&h)
}

func (r *Reloadable) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	(*r.current.Load()).ServeHTTP(w, req)
}
