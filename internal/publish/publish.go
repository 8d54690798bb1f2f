// Package publish delivers compiled plans to an out-of-process render
// backend over socket.io.
package publish

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/vk/shaderplan/internal/ctxlog"
	"github.com/vk/shaderplan/internal/model"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Defaults applied by NewSocketIO.
const (
	DefaultNamespace = "/"
	DefaultEvent     = "plan"
	DefaultTimeout   = 10 * time.Second
)

// Options configures a SocketIO publisher.
type Options struct {
	// URL of the socket.io server, such as http://localhost:3000/socket.io/.
	URL       string
	Namespace string
	// Event is the event the plan is emitted on.
	Event string
	// AckEvent, when set, is the event the backend answers with once it has
	// taken the plan. Publish waits for it.
	AckEvent string
	// Timeout bounds connecting and waiting for the ack.
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// SocketIO publishes plans to a socket.io server. Every Publish call opens
// its own connection.
type SocketIO struct {
	opts Options
	url  *url.URL
}

// NewSocketIO validates opts and fills in defaults.
func NewSocketIO(opts Options) (*SocketIO, error) {
	if opts.URL == "" {
		return nil, errors.New("publish: url is required")
	}
	u, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("publish: failed to parse URL: %w", err)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return nil, fmt.Errorf("publish: unsupported URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("publish: URL %q has no host", opts.URL)
	}
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	if opts.Event == "" {
		opts.Event = DefaultEvent
	}
	if opts.Timeout < 0 {
		return nil, fmt.Errorf("publish: timeout must not be negative, got %s", opts.Timeout)
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	return &SocketIO{opts: opts, url: u}, nil
}

// Options returns the effective options.
func (p *SocketIO) Options() Options {
	return p.opts
}

// Payload converts a plan into the generic JSON shape emitted on the wire.
func Payload(plan *model.Plan) (map[string]any, error) {
	raw, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("failed to encode plan: %w", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode plan payload: %w", err)
	}
	return payload, nil
}

// Publish connects, emits plan on the configured event and, when an ack
// event is configured, waits for it.
func (p *SocketIO) Publish(ctx context.Context, plan *model.Plan) error {
	logger := ctxlog.FromContext(ctx).With("url", p.opts.URL, "namespace", p.opts.Namespace, "event", p.opts.Event)

	payload, err := Payload(plan)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	io, err := p.connect(ctx)
	if err != nil {
		return err
	}
	defer io.Disconnect()

	acked := make(chan struct{}, 1)
	if p.opts.AckEvent != "" {
		io.Once(types.EventName(p.opts.AckEvent), func(...any) {
			logger.Debug("Received plan ack.", "ack_event", p.opts.AckEvent)
			notify(acked, struct{}{})
		})
	}

	logger.Debug("Emitting plan.", "passes", plan.Count(), "contents", len(plan.Contents))
	io.Emit(p.opts.Event, payload)

	if p.opts.AckEvent == "" {
		logger.Info("Published plan.")
		return nil
	}

	select {
	case <-acked:
		logger.Info("Published plan.", "acknowledged", true)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("publish: no '%s' ack within %s: %w", p.opts.AckEvent, p.opts.Timeout, ctx.Err())
	}
}

func (p *SocketIO) connect(ctx context.Context) (*socket.Socket, error) {
	logger := ctxlog.FromContext(ctx)

	opts := socket.DefaultOptions()
	opts.SetPath(p.url.Path)
	if p.opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connected := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", p.url.Scheme, p.url.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(p.opts.Namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Debug("Connected to render backend.", "sid", io.Id())
		notify(connected, nil)
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		notify(connected, connectError(errs))
	})

	io.Connect()

	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return io, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("timed out waiting for socket.io connection: %w", ctx.Err())
	}
}

// notify hands v to a waiter without blocking the socket.io callback. Only
// the first event counts; later ones, or ones after the waiter gave up, are
// dropped.
func notify[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}

// connectError extracts the error a connect_error event carries.
func connectError(args []any) error {
	if len(args) > 0 {
		if err, ok := args[0].(error); ok {
			return err
		}
		return fmt.Errorf("%v", args[0])
	}
	return errors.New("connection refused")
}
