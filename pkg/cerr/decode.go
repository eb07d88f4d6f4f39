package cerr

import (
	"encoding/json"
	"net/http"
)

// DecodeJSON decodes the request body into v, mapping malformed bodies to
// InvalidArgument.
func DecodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return NewError(InvalidArgument, "invalid request body", err)
	}
	return nil
}
