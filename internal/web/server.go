package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/peterkuimelis/monbattle/internal/battle"
	battlenet "github.com/peterkuimelis/monbattle/internal/net"
)

//go:embed static
var staticFiles embed.FS

// Server is the battle web UI server.
type Server struct {
	teamFile string
	origins  []string
	catalog  *battle.Catalog
	logger   *zap.Logger
	mux      *http.ServeMux
}

// NewServer creates a new web server. An empty teamFile serves the built-in
// teams; empty origins accept WebSocket connections from any origin.
func NewServer(teamFile string, origins []string, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	// Fail early on a broken team file.
	if _, err := battle.LoadTeams(teamFile, battle.DefaultCatalog()); err != nil {
		return nil, fmt.Errorf("load teams: %w", err)
	}

	s := &Server{
		teamFile: teamFile,
		origins:  origins,
		catalog:  battle.DefaultCatalog(),
		logger:   logger,
		mux:      http.NewServeMux(),
	}
	s.setupRoutes()
	return s, nil
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) setupRoutes() {
	// Embedded static files
	staticFS, _ := fs.Sub(staticFiles, "static")

	// Serve index.html at root
	s.mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		f, err := staticFS.Open("index.html")
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		defer f.Close()
		io.Copy(w, f)
	})

	// Static CSS/JS
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	// API endpoints
	s.mux.HandleFunc("GET /api/moves", s.handleMoves)
	s.mux.HandleFunc("GET /api/teams", s.handleTeams)

	// WebSocket proxy
	s.mux.HandleFunc("GET /ws", s.handleWebSocket)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response", zap.Error(err))
	}
}

func (s *Server) handleMoves(w http.ResponseWriter, r *http.Request) {
	moves, err := moveInfos(s.catalog)
	if err != nil {
		s.logger.Error("list moves", zap.Error(err))
		http.Error(w, "could not list moves", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, moves)
}

func (s *Server) handleTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := battle.LoadTeams(s.teamFile, s.catalog)
	if err != nil {
		s.logger.Error("load teams", zap.String("file", s.teamFile), zap.Error(err))
		http.Error(w, "could not read teams file", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, teamInfos(teams))
}

// connectMessage is the browser's first WebSocket message.
type connectMessage struct {
	Type       string `json:"type"`
	Addr       string `json:"addr"`
	TeamNumber int    `json:"team_number"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	opts := &websocket.AcceptOptions{OriginPatterns: s.origins}
	if len(s.origins) == 0 {
		opts.InsecureSkipVerify = true
	}
	wsConn, err := websocket.Accept(w, r, opts)
	if err != nil {
		s.logger.Warn("websocket accept", zap.Error(err))
		return
	}
	defer wsConn.CloseNow()

	ctx := r.Context()

	// Read initial connect message from browser
	_, connectData, err := wsConn.Read(ctx)
	if err != nil {
		s.logger.Warn("websocket read connect", zap.Error(err))
		return
	}

	var connectMsg connectMessage
	if err := json.Unmarshal(connectData, &connectMsg); err != nil || connectMsg.Type != "connect" {
		wsConn.Close(websocket.StatusPolicyViolation, "expected connect message")
		return
	}

	// Open TCP connection to the battle server
	tcpConn, err := net.Dial("tcp", connectMsg.Addr)
	if err != nil {
		errMsg, _ := json.Marshal(map[string]string{
			"type":   "error",
			"result": fmt.Sprintf("Could not connect to battle server at %s: %v", connectMsg.Addr, err),
		})
		wsConn.Write(ctx, websocket.MessageText, errMsg)
		wsConn.Close(websocket.StatusNormalClosure, "connection failed")
		return
	}
	defer tcpConn.Close()
	s.logger.Info("proxying battle", zap.String("addr", connectMsg.Addr), zap.Int("team", connectMsg.TeamNumber))

	// Send join message over TCP
	if err := json.NewEncoder(tcpConn).Encode(battlenet.ClientMessage{Type: "join", TeamNumber: connectMsg.TeamNumber}); err != nil {
		s.logger.Warn("tcp write join", zap.Error(err))
		return
	}

	done := make(chan struct{})

	// TCP → WebSocket (server messages to browser)
	go func() {
		defer close(done)
		dec := json.NewDecoder(tcpConn)
		for {
			var msg json.RawMessage
			if err := dec.Decode(&msg); err != nil {
				if err != io.EOF {
					s.logger.Debug("tcp read", zap.Error(err))
				}
				return
			}
			if err := wsConn.Write(ctx, websocket.MessageText, msg); err != nil {
				s.logger.Debug("websocket write", zap.Error(err))
				return
			}
		}
	}()

	// WebSocket → TCP (browser responses to server)
	go func() {
		for {
			_, data, err := wsConn.Read(ctx)
			if err != nil {
				return
			}
			data = append(data, '\n')
			if _, err := tcpConn.Write(data); err != nil {
				s.logger.Debug("tcp write", zap.Error(err))
				return
			}
		}
	}()

	<-done
	wsConn.Close(websocket.StatusNormalClosure, "battle ended")
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s.mux)
}
