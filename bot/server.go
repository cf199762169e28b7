package bot

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// Server receives Telegram webhook deliveries over HTTP and feeds them
// to the dispatcher.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	dispatcher *Dispatcher
	timeout    time.Duration
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr           string
	HandlerTimeout time.Duration
}

func NewServer(config ServerConfig, dispatcher *Dispatcher) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		dispatcher: dispatcher,
		timeout:    config.HandlerTimeout,
	}

	s.router.HandleFunc("/webhook", s.handleWebhook).Methods("POST")
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	s.httpServer = &http.Server{
		Addr:         config.Addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: config.HandlerTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// handleWebhook decodes one Telegram update per request. Malformed
// bodies get a 400 without touching the dispatcher; every update that
// parses is acknowledged with 200 regardless of handler outcome, so
// Telegram never redelivers it.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil || len(body) == 0 {
		http.Error(w, "empty request body", http.StatusBadRequest)
		return
	}

	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		log.WithFields(log.Fields{"error": err}).Warn("Discarding unparseable webhook payload")
		http.Error(w, "invalid update", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	s.dispatcher.HandleUpdate(ctx, update)

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) Start() error {
	log.Infof("Starting webhook server on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("Shutting down webhook server")
	return s.httpServer.Shutdown(ctx)
}
