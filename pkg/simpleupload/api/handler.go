package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"

	"github.com/tendant/simple-upload/pkg/simpleupload"
)

// maxBodySize bounds the JSON or form body of a presign request
const maxBodySize = 1 << 20

// Handler serves presign requests for a set of named upload endpoints
type Handler struct {
	uploaders map[string]*simpleupload.Uploader
	auth      *jwtauth.JWTAuth
	logger    *slog.Logger
}

// HandlerOption configures a Handler
type HandlerOption func(*Handler)

// WithJWTAuth requires a bearer token on every route. The token subject
// becomes the caller identity.
func WithJWTAuth(auth *jwtauth.JWTAuth) HandlerOption {
	return func(h *Handler) {
		h.auth = auth
	}
}

// WithLogger sets the handler logger (default: slog.Default())
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandler creates a handler over uploaders keyed by endpoint name
func NewHandler(uploaders map[string]*simpleupload.Uploader, opts ...HandlerOption) *Handler {
	h := &Handler{
		uploaders: uploaders,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the router for upload endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	if h.auth != nil {
		r.Use(jwtauth.Verifier(h.auth))
		r.Use(jwtauth.Authenticator)
		r.Use(CallerFromJWT)
	}
	r.Get("/{endpoint}", h.Describe)
	r.Post("/{endpoint}", h.CreatePresign)
	r.Get("/{endpoint}/objects/*", h.StatObject)
	return r
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// CreatePresign validates the declared file and returns a signed POST policy
func (h *Handler) CreatePresign(w http.ResponseWriter, r *http.Request) {
	uploader, ok := h.uploader(w, r)
	if !ok {
		return
	}

	req, err := decodeRequest(r)
	if err != nil {
		h.logger.Warn("Failed to decode presign request", "endpoint", uploader.Name(), "error", err)
		writeError(w, r, http.StatusBadRequest, "The request body is invalid.")
		return
	}

	result, err := uploader.Create(r.Context(), req)
	if err != nil {
		var verr *simpleupload.ValidationError
		if errors.As(err, &verr) {
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, ErrorResponse{Message: validationMessage(verr), Errors: verr.Fields()})
			return
		}
		h.logger.Error("Failed to create presign", "endpoint", uploader.Name(), "error", err)
		writeError(w, r, http.StatusInternalServerError, "Unable to authorize the upload.")
		return
	}

	render.JSON(w, r, result)
}

// Describe returns what the endpoint accepts
func (h *Handler) Describe(w http.ResponseWriter, r *http.Request) {
	uploader, ok := h.uploader(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, uploader.Describe())
}

// StatObject confirms that an upload reached the bucket
func (h *Handler) StatObject(w http.ResponseWriter, r *http.Request) {
	uploader, ok := h.uploader(w, r)
	if !ok {
		return
	}

	key := chi.URLParam(r, "*")
	if key == "" {
		writeError(w, r, http.StatusBadRequest, "The object key is required.")
		return
	}

	info, err := uploader.Stat(r.Context(), key)
	if err != nil {
		if errors.Is(err, simpleupload.ErrObjectNotFound) {
			writeError(w, r, http.StatusNotFound, "Object not found.")
			return
		}
		h.logger.Error("Failed to stat object", "endpoint", uploader.Name(), "key", key, "error", err)
		writeError(w, r, http.StatusInternalServerError, "Unable to check the object.")
		return
	}
	render.JSON(w, r, info)
}

func (h *Handler) uploader(w http.ResponseWriter, r *http.Request) (*simpleupload.Uploader, bool) {
	name := chi.URLParam(r, "endpoint")
	uploader, ok := h.uploaders[name]
	if !ok {
		writeError(w, r, http.StatusNotFound, "Upload endpoint not found.")
		return nil, false
	}
	return uploader, true
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Message: message})
}

// validationMessage summarizes a validation error with its first message
func validationMessage(verr *simpleupload.ValidationError) string {
	if len(verr.Errors) == 0 {
		return "The given data was invalid."
	}
	msg := verr.Errors[0].Message
	switch n := len(verr.Errors) - 1; n {
	case 0:
		return msg
	case 1:
		return msg + " (and 1 more error)"
	default:
		return fmt.Sprintf("%s (and %d more errors)", msg, n)
	}
}

// decodeRequest reads a JSON body, or form fields for any other content type.
// Numbers stay json.Number so validation sees exactly what was sent.
func decodeRequest(r *http.Request) (simpleupload.Request, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodySize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req simpleupload.Request
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			return req, err
		}
		return req, nil
	}

	if err := r.ParseMultipartForm(maxBodySize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return simpleupload.Request{}, err
	}

	req := simpleupload.Request{}
	if r.Form.Has("name") {
		req.Name = r.Form.Get("name")
	}
	if r.Form.Has("type") {
		req.Type = r.Form.Get("type")
	}
	if r.Form.Has("size") {
		req.Size = r.Form.Get("size")
	}

	meta := map[string]any{}
	for key, values := range r.Form {
		if field, ok := strings.CutPrefix(key, "meta."); ok && field != "" && len(values) > 0 {
			meta[field] = values[0]
		}
	}
	if len(meta) > 0 {
		req.Meta = meta
	}
	return req, nil
}
