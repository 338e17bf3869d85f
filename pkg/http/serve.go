package xhttp

import (
	"os"
	"os/signal"
	"reflect"
	"runtime"
	"slices"
	"syscall"
	"time"

	"github.com/nimasrn/sms-portal/pkg/logger"
	"github.com/valyala/fasthttp"
)

type RequestHeader = fasthttp.RequestHeader
type ResponseHeader = fasthttp.ResponseHeader
type Server = fasthttp.Server

// ServerOption is the subset of fasthttp.Server settings the portal tunes.
type ServerOption struct {
	// Idle keep-alive connections are closed after IdleTimeout so a burst
	// of clients does not exhaust file descriptors.
	IdleTimeout           time.Duration
	MaxIdleWorkerDuration time.Duration
	TCPKeepalivePeriod    time.Duration
	// MaxRequestBodySize bounds uploads, including contact CSV imports.
	MaxRequestBodySize int
	ReadBufferSize     int
	WriteBufferSize    int
	ReadTimeout        time.Duration
	// WriteTimeout has to cover a whole bulk send, which may take several
	// gateway round trips. It is the only deadline on paths exempted from
	// TimeoutMiddleware.
	WriteTimeout  time.Duration
	Concurrency   int
	MaxConnsPerIP int
	Name          string
}

var DefaultServerOption = ServerOption{
	IdleTimeout:           10 * time.Second,
	MaxIdleWorkerDuration: time.Minute,
	TCPKeepalivePeriod:    120 * time.Minute,
	MaxRequestBodySize:    8 * 1024 * 1024,
	ReadBufferSize:        8 * 1024,
	WriteBufferSize:       4 * 1024,
	ReadTimeout:           10 * time.Second,
	WriteTimeout:          5 * time.Minute,
	Concurrency:           30_000,
	MaxConnsPerIP:         10_000,
	Name:                  "sms-portal",
}

type Engine struct {
	*Router
	*Server
	option ServerOption
	middle []MiddlewareFunc
}

func newServer(o ServerOption) *fasthttp.Server {
	return &fasthttp.Server{
		Handler:               NotFoundHandler,
		ErrorHandler:          func(ctx *RequestCtx, err error) { logger.Warn("[xhttp] request error", "error", err) },
		Name:                  o.Name,
		Concurrency:           o.Concurrency,
		ReadBufferSize:        o.ReadBufferSize,
		WriteBufferSize:       o.WriteBufferSize,
		ReadTimeout:           o.ReadTimeout,
		WriteTimeout:          o.WriteTimeout,
		IdleTimeout:           o.IdleTimeout,
		MaxConnsPerIP:         o.MaxConnsPerIP,
		MaxIdleWorkerDuration: o.MaxIdleWorkerDuration,
		TCPKeepalivePeriod:    o.TCPKeepalivePeriod,
		MaxRequestBodySize:    o.MaxRequestBodySize,
		TCPKeepalive:          true,
		NoDefaultServerHeader: true,
		NoDefaultContentType:  true,
		CloseOnShutdown:       true,
		Logger:                logger.GetLogger(),
	}
}

func NewServer(options ServerOption) *Engine {
	return &Engine{
		Server: newServer(options),
		Router: CreateDefaultRouter(),
		option: options,
	}
}

func CreateServer() *Engine {
	return NewServer(DefaultServerOption)
}

func (e *Engine) ListenAndServe(addr string) error {
	if err := e.DoRouting(); err != nil {
		return err
	}
	logger.Info("[xhttp] server is listening", "addr", addr)
	return e.Server.ListenAndServe(addr)
}

// DoRouting installs the router as the server handler, wrapped by the
// registered middlewares. The first middleware passed to Use runs first.
func (e *Engine) DoRouting() error {
	for method, routes := range e.Router.List() {
		for _, r := range routes {
			logger.Debug("[xhttp] route", "method", method, "path", r)
		}
	}
	h := e.Router.Handler
	middle := slices.Clone(e.middle)
	slices.Reverse(middle)
	for _, m := range middle {
		h = m(h)
		logger.Debug("[xhttp] middleware registered", "name", runtime.FuncForPC(reflect.ValueOf(m).Pointer()).Name())
	}
	e.Server.Handler = h
	return nil
}

// Handler returns the routed and wrapped handler without starting a listener.
func (e *Engine) Handler() RequestHandler {
	_ = e.DoRouting()
	return e.Server.Handler
}

// CloseOnSignal shuts the server down on an interrupt or termination
// signal. ListenAndServe returns as soon as shutdown starts; the returned
// channel is closed once in-flight requests have finished.
func (e *Engine) CloseOnSignal() <-chan struct{} {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	return e.closeOn(sig)
}

func (e *Engine) closeOn(sig <-chan os.Signal) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-sig
		e.Shutdown()
	}()
	return done
}

// Use appends middleware to the chain run for every request.
func (e *Engine) Use(middleware MiddlewareFunc) {
	e.middle = append(e.middle, middleware)
}

// Shutdown waits for active connections to finish.
func (e *Engine) Shutdown() {
	logger.Info("[xhttp] server is shutting down", "pid", os.Getpid())
	if err := e.Server.Shutdown(); err != nil {
		logger.Error("[xhttp] error while shutting down", "error", err)
	}
}
