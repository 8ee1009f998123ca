package validate

import (
	"strconv"

	"github.com/reoring/formskema/tree"
)

// ErrorHandler is handed to custom validate functions. It builds paths in a
// chain-safe way and records errors at them.
//
//	errs.Field("pass2").AddError("passwords don't match")
//	errs.Field("items").Index(2).AddError("too expensive")
type ErrorHandler interface {
	Field(name string) ErrorHandler
	Index(i int) ErrorHandler
	Path() tree.Path
	AddError(msg string)
}

type errorSink struct{ errs Errors }

type handler struct {
	sink *errorSink
	path tree.Path
}

func newHandler() (*handler, *errorSink) {
	sink := &errorSink{}
	return &handler{sink: sink}, sink
}

func (h *handler) Field(name string) ErrorHandler {
	if name == "" {
		return h
	}
	return &handler{sink: h.sink, path: h.path.Child(name)}
}

func (h *handler) Index(i int) ErrorHandler {
	return &handler{sink: h.sink, path: h.path.Child(strconv.Itoa(i))}
}

func (h *handler) Path() tree.Path { return append(tree.Path(nil), h.path...) }

func (h *handler) AddError(msg string) {
	h.sink.errs = append(h.sink.errs, newError(NameCustom, h.Path(), msg))
}
