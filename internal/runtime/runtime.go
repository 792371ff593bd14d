package runtime

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/lthibault/log"
	"github.com/thejerf/suture/v4"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/wetware/cljhost"
	ctxutil "github.com/wetware/cljhost/internal/util/ctx"
	serviceutil "github.com/wetware/cljhost/internal/util/service"
)

/****************************************************************************
 *                                                                          *
 *  runtime.go is responsible for managing the lifetimes of services.       *
 *                                                                          *
 ****************************************************************************/

// Env is the environment of a CLI invocation.
type Env interface {
	Bool(string) bool
	IsSet(string) bool
	Path(string) string
	String(string) string
	StringSlice(string) []string

	App() *cli.App
	Context() context.Context
	Log() log.Logger
	Metrics() cljhost.Metrics
}

// Prelude provides the dependencies shared by all commands.
func Prelude(env Env) fx.Option {
	return fx.Options(
		fx.Provide(
			func() Env { return env },
			env.Log,
			env.Metrics,
			supervisor,
			func() *Outcome { return new(Outcome) }),
		System(),
		VM())
}

// Run a short-lived fx application, calling f with the populated
// targets between start and stop.
func Run(env Env, f func() error, targets ...interface{}) (err error) {
	app := fx.New(fxLogger(env),
		Prelude(env),
		fx.Populate(targets...))

	if err = start(env, app); err != nil {
		return err
	}

	return multierr.Append(f(), shutdown(app))
}

// Serve runs the services in the "services" group under a supervisor.  It
// returns when the supervisor tree terminates, or when the process receives
// SIGINT or SIGTERM.
func Serve(env Env, opt ...fx.Option) error {
	var (
		sup *suture.Supervisor
		out *Outcome
	)

	app := fx.New(fxLogger(env),
		Prelude(env),
		fx.Options(opt...),
		fx.Populate(&sup, &out),
		fx.Invoke(bind))

	if err := start(env, app); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(env.Context())
	g.Go(func() error {
		sig := ctxutil.WithLifetime(ctx)
		<-sig.Done()
		return sig.Err()
	})
	g.Go(func() error {
		return sup.Serve(ctx)
	})

	err := result(env.Log(), out, g.Wait())
	return multierr.Append(err, shutdown(app))
}

func start(env Env, app *fx.App) error {
	ctx, cancel := context.WithTimeout(env.Context(), time.Second*15)
	defer cancel()

	return app.Start(ctx)
}

func shutdown(app *fx.App) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()

	if err = app.Stop(ctx); err == context.Canceled {
		err = nil
	}

	return
}

func result(log log.Logger, out *Outcome, err error) error {
	switch {
	case errors.Is(err, suture.ErrTerminateSupervisorTree):
		return out.Err()

	case errors.Is(err, ctxutil.ErrSignal):
		sig, _ := ctxutil.Signal(err)
		log.WithField("signal", sig).Info("shutting down")
		return out.Err()

	case errors.Is(err, context.Canceled):
		return out.Err()
	}

	return multierr.Append(err, out.Err())
}

// Outcome collects the final errors of services that must not be
// restarted.
type Outcome struct {
	mu  sync.Mutex
	err error
}

// Exit records err and returns suture.ErrTerminateSupervisorTree, which
// the calling service should return.  The supervisor tree is terminated
// and Serve reports err.
func (o *Outcome) Exit(err error) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !errors.Is(err, context.Canceled) {
		o.err = multierr.Append(o.err, err)
	}

	return suture.ErrTerminateSupervisorTree
}

// Err returns the recorded errors.
func (o *Outcome) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.err
}

// Config declares dependencies that are dynamically resolved at
// runtime.
type Config struct {
	fx.In

	Supervisor *suture.Supervisor
	Services   []suture.Service `group:"services"` // caller-supplied services
}

func bind(config Config) {
	for _, service := range config.Services {
		config.Supervisor.Add(service)
	}
}

//
// Dependency declarations
//

func supervisor(env Env) *suture.Supervisor {
	return suture.New(env.App().Name, suture.Spec{
		EventHook: serviceutil.NewEventHook(env.Log(), env.App()),
	})
}

func fxLogger(env Env) fx.Option {
	if env.Bool("log-fx") {
		return fx.Options()
	}

	return fx.NopLogger
}

func closer(c io.Closer) fx.Hook {
	return fx.Hook{
		OnStop: func(context.Context) error {
			return c.Close()
		},
	}
}
