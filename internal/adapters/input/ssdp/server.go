package ssdp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"hue-bridge-emulator/internal/domain/model"
	"net"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	multicastAddr = "239.255.255.250:1900"
	basicDevice   = "urn:schemas-upnp-org:device:basic:1"
)

// Search targets answered by a Hue bridge. Echo devices probe for
// basic:1 or rootdevice.
var searchTargets = map[string]bool{
	basicDevice:       true,
	"upnp:rootdevice": true,
	"ssdp:all":        true,
}

type udpWriter interface {
	WriteToUDP(b []byte, addr *net.UDPAddr) (int, error)
}

// Server answers SSDP M-SEARCH probes with the location of description.xml.
type Server struct {
	cfg *model.BridgeConfig
}

func NewServer(cfg *model.BridgeConfig) *Server {
	return &Server{cfg: cfg}
}

// Run listens on the SSDP multicast group until ctx is cancelled. The
// socket is closed before Run returns.
func (s *Server) Run(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp4", multicastAddr)
	if err != nil {
		return err
	}

	var ifi *net.Interface
	if s.cfg.MulticastInterface != "" {
		ifi, err = net.InterfaceByName(s.cfg.MulticastInterface)
		if err != nil {
			return fmt.Errorf("multicast interface %s: %w", s.cfg.MulticastInterface, err)
		}
	}

	conn, err := net.ListenMulticastUDP("udp4", ifi, addr)
	if err != nil {
		return err
	}
	log.Info().Str("group", multicastAddr).Str("location", s.location()).Msg("Starting SSDP responder")

	s.serve(ctx, conn)
	log.Info().Msg("SSDP responder stopped")
	return nil
}

// serve answers probes arriving on conn until ctx is cancelled. conn is
// closed when serve returns. Other read errors are logged and skipped.
func (s *Server) serve(ctx context.Context, conn *net.UDPConn) {
	stop := make(chan struct{})
	defer close(stop)
	defer conn.Close()
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		conn.Close()
	}()

	buf := make([]byte, 2048)
	for {
		n, src, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			log.Warn().Err(err).Msg("SSDP read failed")
			continue
		}
		s.handle(conn, src, buf[:n])
	}
}

// handle replies to one datagram. Anything that is not a matching probe
// is dropped.
func (s *Server) handle(w udpWriter, src *net.UDPAddr, data []byte) bool {
	st, ok := parseProbe(string(data))
	if !ok {
		return false
	}
	if _, err := w.WriteToUDP([]byte(s.response(st)), src); err != nil {
		log.Debug().Err(err).Str("to", src.String()).Msg("SSDP reply failed")
		return false
	}
	log.Debug().Str("to", src.String()).Str("st", st).Msg("Answered SSDP probe")
	return true
}

func (s *Server) location() string {
	return fmt.Sprintf("http://%s:%d/description.xml", s.cfg.AdvertiseIP, s.cfg.AdvertisePort)
}

func (s *Server) response(st string) string {
	if st == "ssdp:all" {
		st = basicDevice
	}
	return "HTTP/1.1 200 OK\r\n" +
		"CACHE-CONTROL: max-age=100\r\n" +
		"EXT:\r\n" +
		"LOCATION: " + s.location() + "\r\n" +
		"SERVER: Linux/3.14.0 UPnP/1.0 IpBridge/1.41.0\r\n" +
		"hue-bridgeid: " + s.cfg.BridgeID + "\r\n" +
		"ST: " + st + "\r\n" +
		"USN: uuid:" + s.cfg.UDN() + "::" + st + "\r\n\r\n"
}

// parseProbe returns the search target of an ssdp:discover M-SEARCH the
// bridge should answer.
func parseProbe(msg string) (string, bool) {
	scanner := bufio.NewScanner(strings.NewReader(msg))
	if !scanner.Scan() || !strings.HasPrefix(strings.ToUpper(scanner.Text()), "M-SEARCH ") {
		return "", false
	}

	headers := make(map[string]string)
	for scanner.Scan() {
		line := scanner.Text()
		idx := strings.Index(line, ":")
		if idx == -1 {
			continue
		}
		key := strings.ToUpper(strings.TrimSpace(line[:idx]))
		headers[key] = strings.TrimSpace(line[idx+1:])
	}

	if strings.Trim(headers["MAN"], `"`) != "ssdp:discover" {
		return "", false
	}
	st := headers["ST"]
	return st, searchTargets[st]
}
