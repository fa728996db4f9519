package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ovaphlow/pitchfork/service-results-go/internal/apperr"
)

const maxBody = 1 << 20

// DecodeJSON reads the request body into v. An empty body leaves v
// untouched; anything that is not a JSON object is apperr.ErrBadRequest.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %v", apperr.ErrBadRequest, err)
	}
	return nil
}
