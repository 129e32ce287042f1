package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"hue-bridge-emulator/internal/domain/model"
	"io"
	"math"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const maxBodySize = 64 << 10

var errInvalidBody = fmt.Errorf("%w: body contains invalid JSON", model.ErrBadRequest)

// parseStateRequest reads a PUT .../state body. Form encoded requests are
// tried as JSON first because Alexa sends JSON with that content type.
func parseStateRequest(r *http.Request) (model.StateRequest, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return model.StateRequest{}, errInvalidBody
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" {
		if values, err := decodeJSON(body); err == nil {
			return buildStateRequest(values, false)
		}
		form, err := url.ParseQuery(string(body))
		if err != nil {
			return model.StateRequest{}, errInvalidBody
		}
		values := make(map[string]interface{}, len(form))
		for k, v := range form {
			values[k] = v[0]
		}
		return buildStateRequest(values, true)
	}

	values, err := decodeJSON(body)
	if err != nil {
		return model.StateRequest{}, errInvalidBody
	}
	return buildStateRequest(values, false)
}

func decodeJSON(body []byte) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var values map[string]interface{}
	if err := dec.Decode(&values); err != nil {
		return nil, err
	}
	if values == nil {
		return nil, errors.New("body is not an object")
	}
	return values, nil
}

// buildStateRequest type-checks on and bri. A JSON on must be a bool; bri
// may be any integral number or a string holding an integer.
func buildStateRequest(values map[string]interface{}, fromForm bool) (model.StateRequest, error) {
	var req model.StateRequest

	switch on := values[model.HueStateOn].(type) {
	case nil:
		return req, fmt.Errorf("%w: parameter, on, is missing", model.ErrBadRequest)
	case bool:
		req.On = on
	case string:
		if !fromForm || (on != "true" && on != "false") {
			return req, fmt.Errorf("%w: invalid value, %v, for parameter, on", model.ErrBadRequest, on)
		}
		req.On = on == "true"
	default:
		return req, fmt.Errorf("%w: invalid value, %v, for parameter, on", model.ErrBadRequest, on)
	}

	raw, ok := values[model.HueStateBri]
	if !ok {
		return req, nil
	}
	var bri int64
	var err error
	switch v := raw.(type) {
	case json.Number:
		bri, err = jsonInteger(v)
	case string:
		bri, err = strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	default:
		err = errors.New("not a number")
	}
	if err != nil || bri < 0 || bri > 255 {
		return req, fmt.Errorf("%w: invalid value, %v, for parameter, bri", model.ErrBadRequest, raw)
	}
	b := uint8(bri)
	req.Bri = &b
	return req, nil
}

// jsonInteger accepts integral numbers in any JSON notation, so 56, 56.0
// and 5.6e1 are all 56.
func jsonInteger(n json.Number) (int64, error) {
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%s is not an integer", n)
	}
	return int64(f), nil
}
