// Package server exposes the HTTP control API consumed by the web
// controller page.
package server

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/At1re/uking-dmx-controller/internal/controller"
	"github.com/At1re/uking-dmx-controller/internal/logger"
)

// DMXControl is the slice of the controller surface the HTTP layer needs.
type DMXControl interface {
	SetChannels(start int, values []int) int
	Blackout()
	Status() controller.Status
}

// Server handles the HTTP control API.
type Server struct {
	log        logger.Logger
	control    DMXControl
	staticPage string
}

// NewServer builds the HTTP layer on top of the given controller.
func NewServer(log logger.Logger, control DMXControl, staticPage string) *Server {
	return &Server{
		log:        log,
		control:    control,
		staticPage: staticPage,
	}
}

// ServeMux returns the route table for the control API.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.homeHandler)
	mux.HandleFunc("/dmx", cors(s.updateHandler))
	mux.HandleFunc("/status", cors(s.statusHandler))
	mux.HandleFunc("/blackout", cors(s.blackoutHandler))
	return mux
}

// cors allows the controller page to be opened straight from disk or another
// origin, as the original web controller does.
func cors(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}

const fallbackPage = `<h1>DMX Server Running</h1>
<p>Place the controller HTML page next to the server binary.</p>
`

// homeHandler serves the controller page, falling back to a stub when the
// file is absent.
func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	page, err := os.ReadFile(s.staticPage)
	if err != nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(fallbackPage))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

type updateRequest struct {
	StartAddress *int  `json:"startAddress"`
	Channels     []int `json:"channels"`
}

type updateResponse struct {
	Status          string `json:"status"`
	Address         int    `json:"address"`
	ChannelsUpdated int    `json:"channels_updated"`
}

// updateHandler applies a channel update from the web controller.
func (s *Server) updateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.log.With(logger.Fields{"module": "server"}).Debugf("bad update request: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	start := 1
	if req.StartAddress != nil {
		start = *req.StartAddress
	}

	applied := s.control.SetChannels(start, req.Channels)
	s.log.With(logger.Fields{"module": "server"}).Debugf("DMX update - addr: %d, channels: %d", start, applied)

	writeJSON(w, updateResponse{
		Status:          "ok",
		Address:         start,
		ChannelsUpdated: applied,
	})
}

type statusResponse struct {
	Connected bool        `json:"connected"`
	Port      interface{} `json:"port"`
	Running   bool        `json:"running"`
}

// statusHandler reports the connection and transmit state.
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	st := s.control.Status()
	resp := statusResponse{Connected: st.Connected, Running: st.Running}
	if st.Device != "" {
		resp.Port = st.Device
	}
	writeJSON(w, resp)
}

// blackoutHandler zeroes every channel.
func (s *Server) blackoutHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.control.Blackout()
	writeJSON(w, map[string]string{"status": "blackout"})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
