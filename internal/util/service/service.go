// Package serviceutil configures the suture supervisor that runs
// long-lived cljhost services, such as the nREPL server.
package serviceutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lthibault/log"
	"github.com/thejerf/suture/v4"
	"github.com/urfave/cli/v2"

	"github.com/wetware/cljhost/pkg/jvm"
)

func New(c *cli.Context, log log.Logger) *suture.Supervisor {
	return suture.New(c.App.Name, suture.Spec{
		EventHook: NewEventHook(log, c.App),
	})
}

// NewEventHook logs supervisor events.  Panics are additionally
// written to the application's ErrWriter, along with their stack trace.
func NewEventHook(logger log.Logger, app *cli.App) suture.EventHook {
	return func(e suture.Event) {
		switch ev := e.(type) {
		case suture.EventBackoff:
			logger.WithFields(ev.Map()).Debugf("%s suspended", ev.SupervisorName)

		case suture.EventResume:
			logger.
				WithField("parent", ev.SupervisorName).
				Infof("%s resumed", ev.SupervisorName)

		case suture.EventServiceTerminate:
			logger.With(newException(ev.Err, ev.ServiceName, ev.SupervisorName,
				ev.Restarting, ev.CurrentFailures, ev.FailureThreshold)).
				Warnf("%s terminated", ev.ServiceName)

		case suture.EventServicePanic:
			logger.With(newException(ev.PanicMsg, ev.ServiceName, ev.SupervisorName,
				ev.Restarting, ev.CurrentFailures, ev.FailureThreshold)).
				Errorf("unhandled exception in %s", ev.ServiceName)

			fmt.Fprintf(app.ErrWriter, "%s\n%s\n", ev.PanicMsg, ev.Stacktrace)

		case suture.EventStopTimeout:
			logger.
				WithField("parent", ev.SupervisorName).
				Errorf("%s failed to stop in time", ev.ServiceName)
		}
	}
}

// Exception is thrown asynchronously from services.  If the service
// failed because of a Java exception, JavaClass names its class.
type Exception struct {
	Value        interface{} `json:"value"`
	JavaClass    string      `json:"java_class,omitempty"`
	Service      string      `json:"service"`
	Parent       string      `json:"parent"`
	Restart      bool        `json:"restart"`
	Backpressure float64     `json:"backpressure"`
}

func newException(v interface{}, service, parent string, restart bool, failures, threshold float64) Exception {
	e := Exception{
		Value:   v,
		Service: service,
		Parent:  parent,
		Restart: restart,
	}

	if threshold > 0 {
		e.Backpressure = failures / threshold
	}

	var jex *jvm.Exception
	if err, ok := v.(error); ok && errors.As(err, &jex) {
		e.JavaClass = jex.Class
	}

	return e
}

func (e Exception) GoString() string {
	return fmt.Sprintf(strings.TrimSpace(`
Exception{
	Value:        %#v,
	JavaClass:    %s,
	Service:      %s,
	Parent:       %s,
	Restart:      %t,
	Backpressure: %.2f,
}`),
		e.Value,
		strconv.Quote(e.JavaClass),
		strconv.Quote(e.Service),
		strconv.Quote(e.Parent),
		e.Restart,
		e.Backpressure)
}

func (e Exception) Loggable() map[string]interface{} {
	fields := map[string]interface{}{
		"value":        e.Value,
		"service":      e.Service,
		"parent":       e.Parent,
		"restart":      e.Restart,
		"backpressure": e.Backpressure,
	}

	if e.JavaClass != "" {
		fields["java_class"] = e.JavaClass
	}

	return fields
}
