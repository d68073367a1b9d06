//go:build linux

package ime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"sync"

	"github.com/godbus/dbus/v5"

	"vietime/internal/config"
	"vietime/internal/logging"
	"vietime/internal/metrics"
)

// IBus D-Bus constants
const (
	IBusService          = "org.freedesktop.IBus"
	IBusPath             = "/org/freedesktop/IBus"
	IBusInterface        = "org.freedesktop.IBus"
	IBusFactoryInterface = "org.freedesktop.IBus.Factory"
	IBusEngineInterface  = "org.freedesktop.IBus.Engine"
	IBusFactoryPath      = "/org/freedesktop/IBus/Factory"
	VietimeBusName       = "org.freedesktop.IBus.Vietime"
	VietimeEngineName    = "vietime"
	VietimeEngineVersion = "0.1.0"
)

// IBusConfig holds what the IBus server needs to create engines.
type IBusConfig struct {
	// Settings is the loaded configuration. Nil means defaults.
	Settings *config.Config

	// Sources seeds every new engine. Nil means no shortcuts or words.
	Sources *Sources

	Logger  *logging.Logger
	Metrics *metrics.EngineMetrics
	Crash   *logging.CrashHandler
}

// IBusServer owns the bus connection and one IBusEngine per input context
// the daemon asks for.
type IBusServer struct {
	conn *dbus.Conn
	log  *logging.Logger
	cfg  IBusConfig

	mu       sync.Mutex
	settings *config.Config
	sources  *Sources
	engines  map[dbus.ObjectPath]*IBusEngine
	nextID   uint32
}

// NewIBusServer creates a server. Nothing is exported until Start.
func NewIBusServer(cfg IBusConfig) (*IBusServer, error) {
	settings := cfg.Settings
	if settings == nil {
		settings = config.DefaultConfig()
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("ibus settings: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	sources := cfg.Sources
	if sources == nil {
		sources = &Sources{Phonotactic: true}
	}

	return &IBusServer{
		log:      logger.WithComponent("ibus"),
		cfg:      cfg,
		settings: settings.Clone(),
		sources:  sources,
		engines:  make(map[dbus.ObjectPath]*IBusEngine),
	}, nil
}

// Start connects to the IBus bus, claims the component name and exports
// the factory. It stops the server when ctx is done.
func (s *IBusServer) Start(ctx context.Context) error {
	conn, err := connectIBus()
	if err != nil {
		return fmt.Errorf("failed to connect to ibus: %w", err)
	}
	s.conn = conn

	reply, err := conn.RequestName(VietimeBusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return errors.New("bus name already taken")
	}

	if err := conn.Export(&IBusFactory{server: s}, IBusFactoryPath, IBusFactoryInterface); err != nil {
		conn.Close()
		return fmt.Errorf("export factory: %w", err)
	}

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.log.Info("ibus server started", "bus_name", VietimeBusName, "version", VietimeEngineVersion)
	return nil
}

// connectIBus prefers the private IBus bus when its address is known and
// falls back to the session bus.
func connectIBus() (*dbus.Conn, error) {
	if addr := os.Getenv("IBUS_ADDRESS"); addr != "" {
		return dbus.Connect(addr)
	}
	return dbus.SessionBus()
}

// Stop unexports every engine and closes the connection.
func (s *IBusServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	for path := range s.engines {
		s.conn.Export(nil, path, IBusEngineInterface)
	}
	clear(s.engines)

	err := s.conn.Close()
	s.conn = nil
	s.log.Info("ibus server stopped")
	return err
}

// ApplyConfig pushes new settings to every engine. Engines keep the word in
// progress; the settings apply from the next keystroke.
func (s *IBusServer) ApplyConfig(c *config.Config) error {
	if err := c.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.settings = c.Clone()
	engines := s.engineList()
	s.mu.Unlock()

	var errs []error
	for _, e := range engines {
		if err := e.applySettings(c); err != nil {
			errs = append(errs, err)
		}
	}
	s.log.Info("configuration applied", "engines", len(engines), "scheme", c.Engine.Scheme)
	return errors.Join(errs...)
}

// SetSources replaces the shortcuts and words of every engine.
func (s *IBusServer) SetSources(src *Sources) {
	s.mu.Lock()
	s.sources = src
	engines := s.engineList()
	s.mu.Unlock()

	for _, e := range engines {
		e.mu.Lock()
		e.handler.engine.ClearShortcuts()
		src.Seed(e.handler.engine)
		e.mu.Unlock()
	}
}

// Engines returns the number of live engines.
func (s *IBusServer) Engines() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.engines)
}

func (s *IBusServer) engineList() []*IBusEngine {
	out := make([]*IBusEngine, 0, len(s.engines))
	for _, e := range s.engines {
		out = append(out, e)
	}
	return out
}

// newEngine builds an engine from the current settings and sources. The
// caller holds s.mu.
func (s *IBusServer) newEngine(path dbus.ObjectPath) (*IBusEngine, error) {
	core := NewEngine()
	if err := core.ApplyConfig(s.settings.Engine); err != nil {
		return nil, err
	}
	s.sources.Seed(core)
	if s.cfg.Metrics != nil {
		core.SetObserver(s.cfg.Metrics)
	}

	return &IBusEngine{
		server:      s,
		path:        path,
		handler:     newKeyHandler(core, s.cfg.Metrics),
		surrounding: s.settings.IBus.UseSurroundingText,
	}, nil
}

// IBusFactory implements the IBus Factory D-Bus interface.
type IBusFactory struct {
	server *IBusServer
}

// CreateEngine creates a new engine instance for IBus.
func (f *IBusFactory) CreateEngine(engineName string) (dbus.ObjectPath, *dbus.Error) {
	s := f.server
	if engineName != VietimeEngineName {
		return "", dbus.NewError("org.freedesktop.IBus.NoEngine",
			[]interface{}{"Unknown engine: " + engineName})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return "", dbus.MakeFailedError(errors.New("server stopped"))
	}

	s.nextID++
	path := dbus.ObjectPath(fmt.Sprintf("/org/freedesktop/IBus/Engine/%d", s.nextID))
	e, err := s.newEngine(path)
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	if err := s.conn.Export(e, path, IBusEngineInterface); err != nil {
		return "", dbus.MakeFailedError(err)
	}
	s.engines[path] = e

	s.log.Debug("engine created", "path", string(path))
	return path, nil
}

// IBusEngine is one input context. IBus calls its exported methods over
// D-Bus; edits go back as CommitText, DeleteSurroundingText and
// ForwardKeyEvent signals.
type IBusEngine struct {
	server *IBusServer
	path   dbus.ObjectPath

	mu           sync.Mutex
	handler      *keyHandler
	capabilities uint32
	surrounding  bool
}

func (e *IBusEngine) applySettings(c *config.Config) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.surrounding = c.IBus.UseSurroundingText
	return e.handler.engine.ApplyConfig(c.Engine)
}

// ProcessKeyEvent handles key press/release events from IBus.
// Returns true if the key was consumed, false to pass through.
func (e *IBusEngine) ProcessKeyEvent(keyval, keycode, state uint32) (consumed bool, _ *dbus.Error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	defer func() {
		if v := recover(); v != nil {
			e.handler.reset()
			if h := e.server.cfg.Crash; h != nil {
				h.HandlePanic(v, debug.Stack(), map[string]any{
					"method": "ProcessKeyEvent",
					"keyval": keyval,
					"state":  state,
				})
			}
			consumed = false
		}
	}()

	return e.handler.handle(keyval, state, e.sink()), nil
}

func (e *IBusEngine) sink() *dbusSink {
	return &dbusSink{
		conn:        e.server.conn,
		path:        e.path,
		surrounding: e.surrounding && e.capabilities&IBusCapSurroundingText != 0,
	}
}

// FocusIn is called when the engine gains input focus.
func (e *IBusEngine) FocusIn() *dbus.Error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handler.reset()
	return nil
}

// FocusInId is the newer form of FocusIn carrying the object path and
// client name.
func (e *IBusEngine) FocusInId(objectPath, client string) *dbus.Error {
	return e.FocusIn()
}

// FocusOut is called when the engine loses input focus.
func (e *IBusEngine) FocusOut() *dbus.Error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handler.reset()
	return nil
}

// FocusOutId is the newer form of FocusOut.
func (e *IBusEngine) FocusOutId(objectPath string) *dbus.Error {
	return e.FocusOut()
}

// Enable is called when the user switches to the engine.
func (e *IBusEngine) Enable() *dbus.Error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handler.reset()
	return nil
}

// Disable is called when the user switches away.
func (e *IBusEngine) Disable() *dbus.Error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handler.reset()
	return nil
}

// Reset is called when the client resets its input context, for example
// after a mouse click moved the caret.
func (e *IBusEngine) Reset() *dbus.Error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handler.reset()
	return nil
}

// SetCapabilities records what the client supports.
func (e *IBusEngine) SetCapabilities(caps uint32) *dbus.Error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.capabilities = caps
	return nil
}

// SetContentType turns transliteration off in password and PIN fields.
func (e *IBusEngine) SetContentType(purpose, hints uint32) *dbus.Error {
	e.mu.Lock()
	defer e.mu.Unlock()
	bypass := purpose == IBusPurposePassword || purpose == IBusPurposePin
	if bypass != e.handler.bypass {
		e.handler.reset()
	}
	e.handler.bypass = bypass
	return nil
}

// Destroy unexports the engine.
func (e *IBusEngine) Destroy() *dbus.Error {
	s := e.server
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.Export(nil, e.path, IBusEngineInterface)
	}
	delete(s.engines, e.path)
	s.log.Debug("engine destroyed", "path", string(e.path))
	return nil
}

// SetCursorLocation is ignored: there is no candidate window.
func (e *IBusEngine) SetCursorLocation(x, y, w, h int32) *dbus.Error { return nil }

// SetSurroundingText is ignored: the mirror of typed text is used instead.
func (e *IBusEngine) SetSurroundingText(text dbus.Variant, cursorPos, anchorPos uint32) *dbus.Error {
	return nil
}

func (e *IBusEngine) PropertyActivate(propName string, state uint32) *dbus.Error { return nil }
func (e *IBusEngine) PropertyShow(propName string) *dbus.Error                   { return nil }
func (e *IBusEngine) PropertyHide(propName string) *dbus.Error                   { return nil }
func (e *IBusEngine) PageUp() *dbus.Error                                        { return nil }
func (e *IBusEngine) PageDown() *dbus.Error                                      { return nil }
func (e *IBusEngine) CursorUp() *dbus.Error                                      { return nil }
func (e *IBusEngine) CursorDown() *dbus.Error                                    { return nil }
func (e *IBusEngine) CandidateClicked(index, button, state uint32) *dbus.Error   { return nil }

// dbusSink emits the signals that edit the client.
type dbusSink struct {
	conn        *dbus.Conn
	path        dbus.ObjectPath
	surrounding bool
}

func (d *dbusSink) DeleteBefore(n int) {
	if d.conn == nil {
		return
	}
	if d.surrounding {
		d.conn.Emit(d.path, IBusEngineInterface+".DeleteSurroundingText", int32(-n), uint32(n))
		return
	}
	for i := 0; i < n; i++ {
		d.conn.Emit(d.path, IBusEngineInterface+".ForwardKeyEvent",
			uint32(GDKBackSpace), uint32(evdevBackSpace), uint32(0))
		d.conn.Emit(d.path, IBusEngineInterface+".ForwardKeyEvent",
			uint32(GDKBackSpace), uint32(evdevBackSpace), IBusReleaseMask)
	}
}

func (d *dbusSink) Commit(text string) {
	if d.conn == nil {
		return
	}
	d.conn.Emit(d.path, IBusEngineInterface+".CommitText", dbus.MakeVariant(newIBusText(text)))
}

// ibusText and ibusAttrList are the serialized IBusText and IBusAttrList
// objects: a type name, an attachment dictionary and the payload.
type ibusText struct {
	Name        string
	Attachments map[string]dbus.Variant
	Text        string
	AttrList    dbus.Variant
}

type ibusAttrList struct {
	Name        string
	Attachments map[string]dbus.Variant
	Attributes  []dbus.Variant
}

func newIBusText(s string) ibusText {
	return ibusText{
		Name:        "IBusText",
		Attachments: map[string]dbus.Variant{},
		Text:        s,
		AttrList: dbus.MakeVariant(ibusAttrList{
			Name:        "IBusAttrList",
			Attachments: map[string]dbus.Variant{},
			Attributes:  []dbus.Variant{},
		}),
	}
}
