package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hue-bridge-emulator/internal/domain/model"
	"hue-bridge-emulator/internal/ports"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Server struct {
	bridge     ports.BridgePort
	cfg        *model.BridgeConfig
	httpServer *http.Server
}

func NewServer(bridge ports.BridgePort, cfg *model.BridgeConfig) *Server {
	return &Server{
		bridge: bridge,
		cfg:    cfg,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/description.xml", s.handleDescription)
	mux.HandleFunc("/api", s.handleAPI)
	mux.HandleFunc("/api/", s.handleAPI)
	return logRequests(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	addr := net.JoinHostPort(s.cfg.ListenAddr, strconv.Itoa(s.cfg.ListenPort))
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info().Str("addr", addr).Msg("Starting Hue API server")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Hue API server shutdown error")
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleAPI(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api"), "/")
	if path == "" {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, "/")
			return
		}
		s.handleRegister(w, r)
		return
	}

	parts := strings.Split(path, "/")
	subPath := parts[1:]
	if len(subPath) == 0 {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, "/")
			return
		}
		s.handleFullState(w, r)
		return
	}

	switch subPath[0] {
	case "config":
		if len(subPath) == 1 && r.Method == http.MethodGet {
			writeJSON(w, http.StatusOK, s.bridgeConfig())
			return
		}
	case "groups":
		if len(subPath) == 1 && r.Method == http.MethodGet {
			writeJSON(w, http.StatusOK, map[string]interface{}{})
			return
		}
	case "lights":
		s.routeLights(w, r, subPath[1:])
		return
	}
	notFound(w, "/"+strings.Join(subPath, "/"))
}

// routeLights answers unknown entities with 404 whatever the verb. Handlers
// resolve the entity themselves; Lookup only runs on the rejection paths.
func (s *Server) routeLights(w http.ResponseWriter, r *http.Request, rest []string) {
	if len(rest) == 0 {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, "/lights")
			return
		}
		s.handleGetLights(w, r)
		return
	}

	id := rest[0]
	address := "/lights/" + id
	if len(rest) > 2 || (len(rest) == 2 && rest[1] != "state") {
		notFound(w, "/lights/"+strings.Join(rest, "/"))
		return
	}

	if len(rest) == 1 {
		if r.Method != http.MethodGet {
			s.rejectMethod(w, r, id, address)
			return
		}
		s.handleGetLight(w, r, id)
		return
	}
	if r.Method != http.MethodPut {
		s.rejectMethod(w, r, id, address+"/state")
		return
	}
	s.handleSetLightState(w, r, id)
}

func (s *Server) rejectMethod(w http.ResponseWriter, r *http.Request, id, address string) {
	if err := s.bridge.Lookup(r.Context(), id); err != nil {
		s.writeBridgeError(w, address, err)
		return
	}
	methodNotAllowed(w, address)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, []map[string]interface{}{
		{"success": map[string]string{"username": "admin"}},
	})
}

func (s *Server) handleFullState(w http.ResponseWriter, r *http.Request) {
	lights, err := s.bridge.GetLights(r.Context())
	if err != nil {
		s.writeBridgeError(w, "/", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"lights": lights,
		"groups": map[string]interface{}{},
		"config": s.bridgeConfig(),
	})
}

func (s *Server) handleGetLights(w http.ResponseWriter, r *http.Request) {
	lights, err := s.bridge.GetLights(r.Context())
	if err != nil {
		s.writeBridgeError(w, "/lights", err)
		return
	}
	writeJSON(w, http.StatusOK, lights)
}

func (s *Server) handleGetLight(w http.ResponseWriter, r *http.Request, id string) {
	light, err := s.bridge.GetLight(r.Context(), id)
	if err != nil {
		s.writeBridgeError(w, "/lights/"+id, err)
		return
	}
	writeJSON(w, http.StatusOK, light)
}

func (s *Server) handleSetLightState(w http.ResponseWriter, r *http.Request, id string) {
	address := fmt.Sprintf("/lights/%s/state", id)

	req, err := parseStateRequest(r)
	if err != nil {
		if lookupErr := s.bridge.Lookup(r.Context(), id); lookupErr != nil {
			s.writeBridgeError(w, address, lookupErr)
			return
		}
		log.Debug().Err(err).Str("entity", id).Msg("Rejected state request")
		errType := hueErrInvalidValue
		if errors.Is(err, errInvalidBody) {
			errType = hueErrInvalidJSON
		}
		writeError(w, http.StatusBadRequest, errType, address, err.Error())
		return
	}

	results, err := s.bridge.SetLightState(r.Context(), id, req)
	if err != nil {
		s.writeBridgeError(w, address, err)
		return
	}

	resp := make([]map[string]interface{}, 0, len(results))
	for _, res := range results {
		resp = append(resp, map[string]interface{}{
			"success": map[string]interface{}{
				fmt.Sprintf("%s/%s", address, res.Field): res.Value,
			},
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) bridgeConfig() map[string]interface{} {
	return map[string]interface{}{
		"name":             "Philips hue",
		"bridgeid":         s.cfg.BridgeID,
		"mac":              s.cfg.MAC(),
		"modelid":          "BSB002",
		"swversion":        "1935144020",
		"apiversion":       "1.41.0",
		"ipaddress":        s.cfg.AdvertiseIP,
		"linkbutton":       true,
		"factorynew":       false,
		"replacesbridgeid": nil,
		"datastoreversion": "131",
		"starterkitid":     "",
	}
}

func (s *Server) writeBridgeError(w http.ResponseWriter, address string, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		notFound(w, address)
	case errors.Is(err, model.ErrBadRequest):
		writeError(w, http.StatusBadRequest, hueErrInvalidValue, address, err.Error())
	case errors.Is(err, model.ErrDispatchRejected):
		log.Warn().Err(err).Str("address", address).Msg("Command rejected by Home Assistant")
		writeError(w, http.StatusBadGateway, hueErrInternal, address, err.Error())
	default:
		log.Error().Err(err).Str("address", address).Msg("Bridge request failed")
		writeError(w, http.StatusInternalServerError, hueErrInternal, address, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Dur("took", time.Since(start)).
			Msg("Hue API request")
	})
}
