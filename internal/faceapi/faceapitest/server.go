// Package faceapitest runs an in-process stand-in for the face-verification service.
package faceapitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
)

// Server mimics the face service's /api routes. Tests script detections with Identify.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	active    bool
	faces     []string
	detection map[string]interface{}

	// polls before the scripted detection becomes visible
	delay int
	polls int

	starts     int
	stops      int
	failStatus int
	Uploads    []Upload
}

type Upload struct {
	Name        string
	Filename    string
	ContentType string
	Size        int
}

func NewServer(faces ...string) *Server {
	s := &Server{
		faces:     faces,
		detection: map[string]interface{}{"name": nil, "timestamp": nil, "status": "waiting"},
	}
	s.Server = httptest.NewServer(s.router())
	return s
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.health).Methods("GET")
	api.HandleFunc("/start-scanner", s.start).Methods("POST")
	api.HandleFunc("/stop-scanner", s.stop).Methods("POST")
	api.HandleFunc("/scanner-status", s.status).Methods("GET")
	api.HandleFunc("/scanner-frame", s.frame).Methods("GET")
	api.HandleFunc("/register-face", s.register).Methods("POST")
	api.HandleFunc("/registered-faces", s.registered).Methods("GET")
	api.HandleFunc("/attendance-summary", s.summary).Methods("GET")
	return r
}

// Identify makes the scanner report name with status after the given number of status polls.
func (s *Server) Identify(name, status string, at time.Time, afterPolls int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detection = map[string]interface{}{
		"name":       name,
		"timestamp":  float64(at.UnixNano()) / 1e9,
		"status":     status,
		"confidence": 0.91,
		"distance":   0.09,
	}
	s.delay = afterPolls
}

// FailStatus makes /scanner-status answer with code until reset with 0
func (s *Server) FailStatus(code int) {
	s.mu.Lock()
	s.failStatus = code
	s.mu.Unlock()
}

// Counts returns how often the scanner was started and stopped
func (s *Server) Counts() (starts, stops int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts, s.stops
}

func (s *Server) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func detail(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"detail": msg})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "healthy",
		"scanner_active": s.Active(),
		"timestamp":      float64(time.Now().Unix()),
	})
}

func (s *Server) start(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts++
	if len(s.faces) == 0 {
		detail(w, http.StatusBadRequest, "No registered faces found. Register faces first.")
		return
	}
	if s.active {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": false, "message": "Scanner is already running"})
		return
	}
	s.active = true
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":          true,
		"message":          "Scanner started successfully",
		"registered_faces": len(s.faces),
	})
}

func (s *Server) stop(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
	if !s.active {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": false, "message": "Scanner is not running"})
		return
	}
	s.active = false
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Scanner stopped successfully"})
}

func (s *Server) latest() map[string]interface{} {
	s.polls++
	if s.polls <= s.delay {
		return map[string]interface{}{"name": nil, "timestamp": nil, "status": "waiting"}
	}
	return s.detection
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failStatus != 0 {
		detail(w, s.failStatus, "scanner status unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"active":           s.active,
		"latest_detection": s.latest(),
		"registered_faces": len(s.faces),
	})
}

func (s *Server) frame(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		detail(w, http.StatusBadRequest, "Scanner is not running")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"frame": "/9j/", "detection": s.latest()})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		detail(w, http.StatusBadRequest, "Invalid form")
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		detail(w, http.StatusBadRequest, "Name is required")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		detail(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()
	data, _ := io.ReadAll(file)
	ct := header.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "image/") {
		detail(w, http.StatusBadRequest, "File must be an image")
		return
	}

	s.mu.Lock()
	s.faces = append(s.faces, name)
	s.Uploads = append(s.Uploads, Upload{Name: name, Filename: header.Filename, ContentType: ct, Size: len(data)})
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("Face registered successfully for %s", name),
		"name":    name,
	})
}

func (s *Server) registered(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	faces := make([]map[string]interface{}, 0, len(s.faces))
	for i, name := range s.faces {
		faces = append(faces, map[string]interface{}{"id": i + 1, "name": name})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "faces": faces})
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]map[string]interface{}, 0, len(s.faces))
	for _, name := range s.faces {
		records = append(records, map[string]interface{}{"name": name, "time": "09:00:00", "camera": "camera_0", "confidence": 0.9})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"summary": map[string]interface{}{"total_present": len(records), "records": records},
	})
}
