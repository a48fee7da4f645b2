package chat

import (
	"log/slog"
	"net"
)

// Server accepts TCP connections and runs one session goroutine per
// client. A bind failure is fatal; anything that goes wrong on a single
// connection stays on that connection.
type Server struct {
	cfg      Config
	logger   *slog.Logger
	reg      *Registry
	listener net.Listener
}

func NewServer(cfg Config, logger *slog.Logger) *Server {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:    cfg,
		logger: logger,
		reg:    NewRegistry(cfg.HistoryLimit, logger),
	}
}

func (s *Server) Registry() *Registry { return s.reg }

func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	s.listener = ln

	go s.acceptLoop(ln)

	s.logger.Info("server started", "addr", s.cfg.ListenAddr)
	return nil
}

func (s *Server) Stop() {
	s.logger.Info("shutting down")

	if s.listener != nil {
		s.listener.Close()
	}

	s.logger.Info("shutdown complete")
}

func (s *Server) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			// closed listener lands here, normal shutdown
			return
		}

		s.logger.Info("client connected", "addr", conn.RemoteAddr().String())
		go s.ServeConn(NewNetConn(conn))
	}
}

// ServeConn runs the full protocol conversation over any line transport.
// The websocket gateway calls this too.
func (s *Server) ServeConn(conn Conn) {
	sess := NewSession(conn, s.logger, s.cfg.OutboundBuffer)
	HandleSession(sess, s.reg)
}
