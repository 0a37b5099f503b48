package report

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/specialistvlad/ensure/internal/ctxlog"
	"github.com/specialistvlad/ensure/internal/node"
	"github.com/specialistvlad/ensure/internal/runner"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Socket.io event names emitted by Broadcast.
const (
	EventEnter   = "unit:enter"
	EventMessage = "unit:message"
	EventLeave   = "unit:leave"
)

// ConnectTimeout bounds the wait for the initial socket.io handshake.
const ConnectTimeout = 15 * time.Second

// RemoteOptions select the socket.io endpoint tree events are streamed to.
type RemoteOptions struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
}

// Broadcast is a Reporter that streams tree events to a socket.io server,
// for dashboards following a run from elsewhere. Delivery is best effort and
// never affects the run.
type Broadcast struct {
	emit  func(event string, payload map[string]any)
	close func()
}

// Dial connects to the socket.io server described by opts and returns a
// Broadcast bound to it.
func Dial(ctx context.Context, opts RemoteOptions) (*Broadcast, error) {
	logger := ctxlog.FromContext(ctx).With("reporter", "socketio", "url", opts.URL)
	logger.Debug("Connecting tree broadcast...")

	parsedURL, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse report URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid report URL %q: scheme and host are required", opts.URL)
	}

	sockOpts := socket.DefaultOptions()
	sockOpts.SetPath(parsedURL.Path)
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		sockOpts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	sockOpts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, sockOpts)
	io := manager.Socket(opts.Namespace, sockOpts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Tree broadcast connected.", "sid", io.Id())
		select {
		case connectChan <- nil:
		default:
		}
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		select {
		case connectChan <- err:
		default:
		}
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(ConnectTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", ConnectTimeout)
	}

	return &Broadcast{
		emit: func(event string, payload map[string]any) {
			io.Emit(event, payload)
		},
		close: func() {
			io.Disconnect()
		},
	}, nil
}

// Enter implements Reporter.
func (b *Broadcast) Enter(depth int, name string, args []string) {
	b.emit(EventEnter, map[string]any{
		"depth": depth,
		"unit":  name,
		"args":  argsPayload(args),
	})
}

// Message implements Reporter.
func (b *Broadcast) Message(depth int, msg node.Message) {
	b.emit(EventMessage, map[string]any{
		"depth": depth,
		"text":  msg.Text,
		"time":  msg.Time.Format(time.RFC3339Nano),
	})
}

// Leave implements Reporter.
func (b *Broadcast) Leave(depth int, name string, args []string, result runner.Result, err error) {
	payload := map[string]any{
		"depth": depth,
		"unit":  name,
		"args":  argsPayload(args),
		"ok":    err == nil,
	}
	if err != nil {
		payload["reason"] = node.Reason(err)
	} else {
		payload["result"] = result.String()
	}
	b.emit(EventLeave, payload)
}

// Close disconnects from the server.
func (b *Broadcast) Close() {
	if b.close != nil {
		b.close()
	}
}

func argsPayload(args []string) []string {
	if args == nil {
		return []string{}
	}
	return args
}
