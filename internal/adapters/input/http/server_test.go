package http

import (
	"context"
	"encoding/json"
	"hue-bridge-emulator/internal/adapters/output/memory"
	"hue-bridge-emulator/internal/domain/model"
	"hue-bridge-emulator/internal/domain/service"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/amimof/huego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	srv   *httptest.Server
	store *memory.Store
}

func newFixture(t *testing.T) *fixture {
	hidden := false
	cfg := &model.BridgeConfig{
		AdvertiseIP:     "192.168.1.50",
		AdvertisePort:   80,
		BridgeID:        "001788FFFE23BFC2",
		ExposeByDefault: true,
		ExposedDomains:  model.SupportedDomains,
		Entities: map[string]model.EntityOverride{
			"light.kitchen_lights": {Exposed: &hidden},
		},
	}
	store := memory.NewStore(
		model.Entity{ID: "light.ceiling_lights", State: "on", Attributes: map[string]interface{}{"brightness": 180.0}},
		model.Entity{ID: "light.bed_light", State: "off", Attributes: map[string]interface{}{}},
		model.Entity{ID: "light.kitchen_lights", State: "on", Attributes: map[string]interface{}{"brightness": 200.0}},
		model.Entity{ID: "media_player.walkman", State: "off", Attributes: map[string]interface{}{}},
		model.Entity{ID: "media_player.bedroom", State: "playing", Attributes: map[string]interface{}{"volume_level": 1.0}},
		model.Entity{ID: "script.set_kitchen_light", State: "off", Attributes: map[string]interface{}{}},
		model.Entity{ID: "sensor.outside_temperature", State: "12.5", Attributes: map[string]interface{}{model.AttrEmulatedHue: true}},
	)
	srv := httptest.NewServer(NewServer(service.NewBridgeService(store, cfg), cfg).Handler())
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, store: store}
}

func (f *fixture) do(t *testing.T, method, path, contentType, body string) *http.Response {
	req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func (f *fixture) entity(t *testing.T, id string) model.Entity {
	e, err := f.store.Get(context.Background(), id)
	require.NoError(t, err)
	return e
}

func TestDiscoverLights(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodGet, "/api/username/lights", "", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")

	var lights map[string]huego.Light
	decode(t, resp, &lights)
	assert.Contains(t, lights, "light.ceiling_lights")
	assert.Contains(t, lights, "light.bed_light")
	assert.Contains(t, lights, "script.set_kitchen_light")
	assert.Contains(t, lights, "media_player.walkman")
	assert.Contains(t, lights, "media_player.bedroom")
	assert.NotContains(t, lights, "light.kitchen_lights")
	assert.NotContains(t, lights, "sensor.outside_temperature")
	assert.Equal(t, uint8(180), lights["light.ceiling_lights"].State.Bri)
	assert.Equal(t, uint8(255), lights["media_player.bedroom"].State.Bri)
}

func TestGetLightState(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/api/username/lights/light.ceiling_lights", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var light huego.Light
	decode(t, resp, &light)
	assert.True(t, light.State.On)
	assert.Equal(t, uint8(180), light.State.Bri)
	assert.True(t, light.State.Reachable)
	assert.Equal(t, "light.ceiling_lights", light.Name)

	// bri is present even when zero.
	resp = f.do(t, http.MethodGet, "/api/username/lights/light.bed_light", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var raw map[string]interface{}
	decode(t, resp, &raw)
	state := raw["state"].(map[string]interface{})
	assert.Equal(t, false, state["on"])
	assert.Equal(t, 0.0, state["bri"])

	resp = f.do(t, http.MethodGet, "/api/username/lights/light.kitchen_lights", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPutLightState(t *testing.T) {
	f := newFixture(t)
	f.store.Put(model.Entity{ID: "light.ceiling_lights", State: "off"})

	resp := f.do(t, http.MethodPut, "/api/username/lights/light.ceiling_lights/state", "application/json", `{"on": true, "bri": 56}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")

	var result []map[string]map[string]interface{}
	decode(t, resp, &result)
	require.Len(t, result, 2)
	assert.Equal(t, true, result[0]["success"]["/lights/light.ceiling_lights/state/on"])
	assert.Equal(t, 56.0, result[1]["success"]["/lights/light.ceiling_lights/state/bri"])

	e := f.entity(t, "light.ceiling_lights")
	assert.Equal(t, "on", e.State)
	assert.Equal(t, 56.0, e.Attributes["brightness"])

	resp = f.do(t, http.MethodGet, "/api/username/lights/light.ceiling_lights", "", "")
	var light huego.Light
	decode(t, resp, &light)
	assert.True(t, light.State.On)
	assert.Equal(t, uint8(56), light.State.Bri)

	// Turn it off again.
	resp = f.do(t, http.MethodPut, "/api/username/lights/light.ceiling_lights/state", "application/json", `{"on": false}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &result)
	assert.Len(t, result, 1)
	assert.Equal(t, "off", f.entity(t, "light.ceiling_lights").State)

	resp = f.do(t, http.MethodPut, "/api/username/lights/light.kitchen_lights/state", "application/json", `{"on": true}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "on", f.entity(t, "light.kitchen_lights").State)
}

func TestPutLightStateScript(t *testing.T) {
	f := newFixture(t)

	// 23% arrives as round(23 * 255 / 100).
	resp := f.do(t, http.MethodPut, "/api/username/lights/script.set_kitchen_light/state", "application/json", `{"on": true, "bri": 59}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result []interface{}
	decode(t, resp, &result)
	assert.Len(t, result, 2)

	vars := f.entity(t, "script.set_kitchen_light").Attributes["last_variables"].(map[string]interface{})
	assert.Equal(t, "on", vars["requested_state"])
	assert.Equal(t, 23, vars["requested_level"])
}

func TestPutLightStateMediaPlayer(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPut, "/api/username/lights/media_player.walkman/state", "application/json", `{"on": true, "bri": 64}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result []interface{}
	decode(t, resp, &result)
	assert.Len(t, result, 2)

	walkman := f.entity(t, "media_player.walkman")
	assert.Equal(t, "playing", walkman.State)
	assert.InDelta(t, 0.25, walkman.Attributes["volume_level"].(float64), 0.005)

	resp = f.do(t, http.MethodGet, "/api/username/lights/media_player.walkman", "", "")
	var light huego.Light
	decode(t, resp, &light)
	assert.True(t, light.State.On)
	assert.Equal(t, uint8(64), light.State.Bri)
}

func TestPutWithFormURLEncodedContentType(t *testing.T) {
	f := newFixture(t)
	f.store.Put(model.Entity{ID: "light.ceiling_lights", State: "off"})
	form := "application/x-www-form-urlencoded"

	// Alexa sends JSON with a form content type.
	resp := f.do(t, http.MethodPut, "/api/username/lights/light.ceiling_lights/state", form, `{"on": true, "bri": 56}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result []interface{}
	decode(t, resp, &result)
	assert.Len(t, result, 2)
	assert.Equal(t, 56.0, f.entity(t, "light.ceiling_lights").Attributes["brightness"])

	resp = f.do(t, http.MethodPut, "/api/username/lights/light.ceiling_lights/state", form, "on=true&bri=99")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 99.0, f.entity(t, "light.ceiling_lights").Attributes["brightness"])

	resp = f.do(t, http.MethodPut, "/api/username/lights/light.ceiling_lights/state", form, "key1=value1&key2=value2")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 99.0, f.entity(t, "light.ceiling_lights").Attributes["brightness"])

	resp = f.do(t, http.MethodPut, "/api/username/lights/light.ceiling_lights/state", form, "on=1")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEntityNotFound(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/api/username/lights/not.existant_entity", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.do(t, http.MethodPut, "/api/username/lights/non.existant_entity/state", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/username/lights/non.existant_entity/state", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/username/lights/sensor.outside_temperature", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var errs []map[string]hueError
	decode(t, resp, &errs)
	require.Len(t, errs, 1)
	assert.Equal(t, hueErrResourceNotFound, errs[0]["error"].Type)
}

func TestAllowedMethods(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/api/username/lights/light.ceiling_lights/state", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp = f.do(t, http.MethodPut, "/api/username/lights/light.ceiling_lights", "application/x-www-form-urlencoded", "key1=value1")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp = f.do(t, http.MethodPut, "/api/username/lights", "application/x-www-form-urlencoded", "key1=value1")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestProperPutStateRequest(t *testing.T) {
	f := newFixture(t)
	path := "/api/username/lights/light.ceiling_lights/state"

	cases := map[string]string{
		"on as integer":       `{"on": 1234}`,
		"on as string":        `{"on": "true", "bri": 10}`,
		"on missing":          `{"bri": 10}`,
		"bri as string":       `{"on": true, "bri": "Hello world!"}`,
		"bri as float":        `{"on": true, "bri": 12.5}`,
		"bri as float string": `{"on": true, "bri": "56.0"}`,
		"bri string range":    `{"on": true, "bri": "256"}`,
		"bri huge exponent":   `{"on": true, "bri": 1e300}`,
		"bri out of range":    `{"on": true, "bri": 300}`,
		"bri negative":        `{"on": true, "bri": -1}`,
		"not an object":       `[true]`,
		"unparsable":          `{"on": tru`,
		"empty body":          ``,
		"null":                `null`,
		"integer and string":  `{"on": 1234, "bri": "x"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp := f.do(t, http.MethodPut, path, "", body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
	assert.Equal(t, 180.0, f.entity(t, "light.ceiling_lights").Attributes["brightness"])
}

func TestPutLightStateNumericBri(t *testing.T) {
	f := newFixture(t)
	path := "/api/username/lights/light.ceiling_lights/state"

	cases := map[string]string{
		"string":   `{"on": true, "bri": "56"}`,
		"decimal":  `{"on": true, "bri": 56.0}`,
		"exponent": `{"on": true, "bri": 5.6e1}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			f.store.Put(model.Entity{ID: "light.ceiling_lights", State: "off"})

			resp := f.do(t, http.MethodPut, path, "application/json", body)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var result []map[string]map[string]interface{}
			decode(t, resp, &result)
			require.Len(t, result, 2)
			assert.Equal(t, 56.0, result[1]["success"]["/lights/light.ceiling_lights/state/bri"])
			assert.Equal(t, 56.0, f.entity(t, "light.ceiling_lights").Attributes["brightness"])
		})
	}
}

func TestRegisterAndFullState(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPost, "/api", "application/json", `{"devicetype": "Echo"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var reg []map[string]map[string]string
	decode(t, resp, &reg)
	assert.Equal(t, "admin", reg[0]["success"]["username"])

	resp = f.do(t, http.MethodGet, "/api/admin", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var full struct {
		Lights map[string]huego.Light `json:"lights"`
		Config map[string]interface{} `json:"config"`
	}
	decode(t, resp, &full)
	assert.Len(t, full.Lights, 5)
	assert.Equal(t, "001788FFFE23BFC2", full.Config["bridgeid"])
	assert.Equal(t, "ff:fe:23:bf:c2", full.Config["mac"].(string)[3:])

	resp = f.do(t, http.MethodGet, "/api/admin/groups", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/admin/schedules", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDescription(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodGet, "/description.xml", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "<URLBase>http://192.168.1.50:80/</URLBase>")
	assert.Contains(t, string(body), "<serialNumber>88fffe23bfc2</serialNumber>")
	assert.Contains(t, string(body), "<modelName>Philips hue bridge 2015</modelName>")
}

type countingStore struct {
	*memory.Store
	gets atomic.Int32
}

func (c *countingStore) Get(ctx context.Context, id string) (model.Entity, error) {
	c.gets.Add(1)
	return c.Store.Get(ctx, id)
}

func TestSingleEntityFetchPerRequest(t *testing.T) {
	cfg := &model.BridgeConfig{ExposeByDefault: true, ExposedDomains: model.SupportedDomains}
	store := &countingStore{Store: memory.NewStore(
		model.Entity{ID: "light.desk", State: "on", Attributes: map[string]interface{}{"brightness": 90.0}},
	)}
	srv := httptest.NewServer(NewServer(service.NewBridgeService(store, cfg), cfg).Handler())
	defer srv.Close()

	send := func(method, path, body string) int {
		req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	store.gets.Store(0)
	assert.Equal(t, http.StatusOK, send(http.MethodGet, "/api/u/lights/light.desk", ""))
	assert.Equal(t, int32(1), store.gets.Load())

	store.gets.Store(0)
	assert.Equal(t, http.StatusOK, send(http.MethodPut, "/api/u/lights/light.desk/state", `{"on": true, "bri": 10}`))
	assert.Equal(t, int32(1), store.gets.Load())

	// Rejections still check existence first.
	assert.Equal(t, http.StatusBadRequest, send(http.MethodPut, "/api/u/lights/light.desk/state", `{"on": 1}`))
	assert.Equal(t, http.StatusNotFound, send(http.MethodPut, "/api/u/lights/light.absent/state", `{"on": 1}`))
	assert.Equal(t, http.StatusMethodNotAllowed, send(http.MethodDelete, "/api/u/lights/light.desk", ""))
	assert.Equal(t, http.StatusNotFound, send(http.MethodDelete, "/api/u/lights/light.absent", ""))
}
