// Package logmods composes slog handlers, and finds a handler of a given type back in a composition.
package logmods

import (
	"log/slog"
)

// HandlerMod wraps a log handler. The result should implement Handler,
// so the wrapped handler can be found again with FindHandler.
type HandlerMod func(slog.Handler) slog.Handler

// Handler is a slog.Handler you can unwrap.
type Handler interface {
	slog.Handler
	Unwrap() slog.Handler
}

// Apply wraps h with each mod in order, so the last mod is the outermost handler.
func Apply(h slog.Handler, mods ...HandlerMod) slog.Handler {
	for _, mod := range mods {
		h = mod(h)
	}
	return h
}

// FindHandler returns the outermost handler of type H, unwrapping h as far as possible.
func FindHandler[H slog.Handler](h slog.Handler) (out H, ok bool) {
	for h != nil {
		if found, isH := h.(H); isH {
			return found, true
		}
		unwrappable, canUnwrap := h.(Handler)
		if !canUnwrap {
			break
		}
		h = unwrappable.Unwrap()
	}
	return out, false
}
