package stars

import (
	"github.com/kektsukuba/stars/acceptor"
	"github.com/kektsukuba/stars/common"
	"github.com/kektsukuba/stars/directory"
	"github.com/kektsukuba/stars/monitor"
	"github.com/kektsukuba/stars/policy"
	"github.com/kektsukuba/stars/router"
	"github.com/kektsukuba/stars/secret"
)

// Server is the top-level engine wiring every STARS component together,
// staged through Init/Run the way the teacher's Babble struct wires the
// consensus engine together in src/babble/babble.go.
type Server struct {
	Config *Config

	Policy    *policy.Config
	Secret    []byte
	Directory *directory.Directory
	Router    *router.Router
	Acceptor  *acceptor.Acceptor
}

// New returns a Server for config, not yet initialized.
func New(config *Config) *Server {
	return &Server{Config: config}
}

func (s *Server) initPolicy() error {
	cfg, err := policy.LoadConfig(s.Config.Libdir)
	if err != nil {
		return err
	}
	s.Policy = cfg
	return nil
}

func (s *Server) initSecret() error {
	sec, err := secret.Load(s.Config.Keydir)
	if err != nil {
		return err
	}
	s.Secret = sec
	return nil
}

func (s *Server) initDirectory() error {
	s.Directory = directory.New()
	return nil
}

func (s *Server) initRouter() error {
	events := make(chan router.Event, 64)
	s.Router = &router.Router{
		Dir:        s.Directory,
		Cfg:        s.Policy,
		ServerName: s.Config.ServerName,
		Logger:     s.Config.Logger(),
		Events:     events,
	}
	go monitor.Run(events, s.Config.Logger())
	return nil
}

func (s *Server) initAcceptor() error {
	acc, err := acceptor.New(
		s.Config.BindAddr(),
		s.Directory,
		s.Policy,
		s.Secret,
		s.Router,
		s.Config.ReadTimeout,
		s.Config.ServerName,
		s.Config.RawLogger(),
	)
	if err != nil {
		return common.NewError(common.Bind, "", err.Error())
	}
	s.Acceptor = acc
	s.Router.Shutdown = acc.Shutdown
	return nil
}

// Init brings up the Configuration Snapshot, the server secret, the
// Directory, the Command Router and the Acceptor Loop's listener, in
// that order. Any failure here is fatal (spec.md §7: ConfigLoad and Bind
// errors abort startup).
func (s *Server) Init() error {
	if err := s.initPolicy(); err != nil {
		return err
	}
	if err := s.initSecret(); err != nil {
		return err
	}
	if err := s.initDirectory(); err != nil {
		return err
	}
	if err := s.initRouter(); err != nil {
		return err
	}
	if err := s.initAcceptor(); err != nil {
		return err
	}
	return nil
}

// Run starts the Acceptor Loop. It blocks until the listener is closed,
// either by Shutdown (via the shutdownserver built-in) or by an accept
// error.
func (s *Server) Run() error {
	s.Config.Logger().WithField("addr", s.Acceptor.Addr().String()).Info("accepting connections")
	return s.Acceptor.Serve()
}
