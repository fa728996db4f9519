// Package render writes API documents as JSON or XML with the caching,
// location and allow headers shared by every resource.
package render

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"encoding/xml"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/ovaphlow/pitchfork/service-results-go/internal/apperr"
)

type Format string

const (
	JSON Format = "json"
	XML  Format = "xml"
)

func (f Format) ContentType() string {
	if f == XML {
		return "application/xml"
	}
	return "application/json"
}

var mediaFormats = map[string]Format{
	"application/json": JSON,
	"application/xml":  XML,
	"text/xml":         XML,
}

// SplitSuffix strips a ".json" or ".xml" suffix from a path segment and
// reports the format it named (empty when there was none).
func SplitSuffix(seg string) (string, Format) {
	switch {
	case strings.HasSuffix(seg, ".json"):
		return strings.TrimSuffix(seg, ".json"), JSON
	case strings.HasSuffix(seg, ".xml"):
		return strings.TrimSuffix(seg, ".xml"), XML
	}
	return seg, ""
}

// FormatOf picks the response format of r: a suffix on the last path
// segment, then the Accept header, then JSON.
func FormatOf(r *http.Request) Format {
	if _, f := SplitSuffix(path.Base(r.URL.Path)); f != "" {
		return f
	}
	return fromAccept(r.Header.Get("Accept"))
}

// fromAccept returns the supported media type with the highest q value;
// ties go to the one listed first.
func fromAccept(accept string) Format {
	best, bestQ := JSON, 0.0
	for _, part := range strings.Split(accept, ",") {
		mt, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		f, ok := mediaFormats[mt]
		if !ok {
			continue
		}
		q := 1.0
		if v, ok := params["q"]; ok {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				q = parsed
			}
		}
		if q > bestQ {
			best, bestQ = f, q
		}
	}
	return best
}

func encode(f Format, v any) ([]byte, error) {
	if f == XML {
		b, err := xml.Marshal(v)
		if err != nil {
			return nil, err
		}
		return append([]byte(xml.Header), b...), nil
	}
	return json.Marshal(v)
}

// ETag returns the quoted MD5 hex digest of body.
func ETag(body []byte) string {
	sum := md5.Sum(body)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

// Respond encodes v in the negotiated format. Successful GETs carry an
// ETag of the body and Cache-Control: must-revalidate.
func Respond(w http.ResponseWriter, r *http.Request, status int, v any) {
	f := FormatOf(r)
	body, err := encode(f, v)
	if err != nil {
		Error(w, r, err)
		return
	}
	h := w.Header()
	h.Set("Content-Type", f.ContentType())
	if r.Method == http.MethodGet && status == http.StatusOK {
		h.Set("ETag", ETag(body))
		h.Set("Cache-Control", "must-revalidate")
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// Created responds 201 with a Location header.
func Created(w http.ResponseWriter, r *http.Request, location string, v any) {
	w.Header().Set("Location", location)
	Respond(w, r, http.StatusCreated, v)
}

// NoContent responds 204 with no body.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Options answers a preflight-style OPTIONS request.
func Options(w http.ResponseWriter, allow ...string) {
	h := w.Header()
	h.Set("Allow", strings.Join(allow, ", "))
	h.Set("Cache-Control", "public, immutable")
	w.WriteHeader(http.StatusNoContent)
}

// Envelope is the error body: {"code":404,"message":"Not Found"} or
// <message><code>404</code><message>Not Found</message></message>.
type Envelope struct {
	XMLName xml.Name `json:"-" xml:"message"`
	Code    int      `json:"code" xml:"code"`
	Message string   `json:"message" xml:"message"`
}

func NewEnvelope(status int) Envelope {
	return Envelope{Code: status, Message: http.StatusText(status)}
}

// Error writes the envelope for err. Only the status reason phrase is
// exposed; callers log unexpected errors themselves.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	Status(w, r, apperr.Status(err))
}

// Status writes the envelope for an explicit status code.
func Status(w http.ResponseWriter, r *http.Request, status int) {
	f := FormatOf(r)
	body, encErr := encode(f, NewEnvelope(status))
	if encErr != nil {
		f = JSON
		body, _ = json.Marshal(NewEnvelope(http.StatusInternalServerError))
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", f.ContentType())
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// StatusContentReturned is answered by a successful update together with
// the updated representation.
const StatusContentReturned = 209

// PathID reads the {id} wildcard, which may carry a .json/.xml suffix.
// Only positive decimal ids are accepted.
func PathID(r *http.Request) (int64, bool) {
	raw, _ := SplitSuffix(r.PathValue("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
