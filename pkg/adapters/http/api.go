package http

import (
	_ "embed"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

//go:embed openapi.yaml
var rawSpec []byte

// LoadSpec parses and validates the embedded OpenAPI document.
func LoadSpec() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to load openapi document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return doc, nil
}

// HelloParams defines parameters for Hello.
type HelloParams struct {
	Name string `form:"name" json:"name"`
}

// ServerInterface represents all server handlers described by openapi.yaml.
type ServerInterface interface {
	// (GET /hello)
	Hello(w http.ResponseWriter, r *http.Request, params HelloParams)
	// (GET /api/greetings)
	ListGreetings(w http.ResponseWriter, r *http.Request)
	// (POST /api/greetings)
	CreateGreeting(w http.ResponseWriter, r *http.Request)
	// (GET /api/greetings/{id})
	GetGreeting(w http.ResponseWriter, r *http.Request, id string)
	// (GET /api/greetings/by-name/{name})
	FindGreetingsByName(w http.ResponseWriter, r *http.Request, name string)
	// (GET /health)
	GetHealth(w http.ResponseWriter, r *http.Request)
	// (GET /info)
	GetInfo(w http.ResponseWriter, r *http.Request)
}

// ErrorHandlerFunc reports parameter binding failures.
type ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)

// InvalidParamFormatError is passed to the ErrorHandlerFunc when a parameter cannot be bound.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %v", e.ParamName, e.Err)
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

type wrapper struct {
	handler ServerInterface
	onError ErrorHandlerFunc
}

func (w *wrapper) hello(rw http.ResponseWriter, r *http.Request) {
	var params HelloParams
	if err := runtime.BindQueryParameter("form", true, true, "name", r.URL.Query(), &params.Name); err != nil {
		w.onError(rw, r, &InvalidParamFormatError{ParamName: "name", Err: err})
		return
	}
	w.handler.Hello(rw, r, params)
}

func (w *wrapper) getGreeting(rw http.ResponseWriter, r *http.Request) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		w.onError(rw, r, &InvalidParamFormatError{ParamName: "id", Err: err})
		return
	}
	w.handler.GetGreeting(rw, r, id)
}

func (w *wrapper) findGreetingsByName(rw http.ResponseWriter, r *http.Request) {
	var name string
	err := runtime.BindStyledParameterWithOptions("simple", "name", chi.URLParam(r, "name"), &name,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		w.onError(rw, r, &InvalidParamFormatError{ParamName: "name", Err: err})
		return
	}
	w.handler.FindGreetingsByName(rw, r, name)
}

// HandlerFromMux mounts every operation of si on r.
func HandlerFromMux(si ServerInterface, r chi.Router, onError ErrorHandlerFunc) http.Handler {
	w := &wrapper{handler: si, onError: onError}

	r.Get("/hello", w.hello)
	r.Get("/api/greetings", si.ListGreetings)
	r.Post("/api/greetings", si.CreateGreeting)
	r.Get("/api/greetings/{id}", w.getGreeting)
	r.Get("/api/greetings/by-name/{name}", w.findGreetingsByName)
	r.Get("/health", si.GetHealth)
	r.Get("/info", si.GetInfo)

	return r
}
