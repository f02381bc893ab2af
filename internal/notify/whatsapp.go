// Package notify delivers generated digests over WhatsApp.
package notify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mdp/qrterminal/v3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"

	"github.com/nahidhasan98/autolog/internal/logger"
	"github.com/nahidhasan98/autolog/internal/metrics"
)

// ErrNotLinked means no device has been paired yet
var ErrNotLinked = errors.New("whatsapp device is not linked")

// ErrNotConnected means the session did not log in within the connect timeout
var ErrNotConnected = errors.New("whatsapp session is not connected")

// connectTimeout bounds how long Send waits for a resumed session to log in
const connectTimeout = 15 * time.Second

// Config selects the session store and device identity.
type Config struct {
	Driver     string
	DSN        string
	LogLevel   string
	DeviceName string
}

// Backoff controls automatic reconnection
type Backoff struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// Next grows interval by the multiplier, capped at MaxInterval
func (b Backoff) Next(interval time.Duration) time.Duration {
	next := time.Duration(float64(interval) * b.Multiplier)
	if next > b.MaxInterval {
		return b.MaxInterval
	}
	return next
}

// DefaultBackoff is used by New
var DefaultBackoff = Backoff{
	MaxRetries:      10,
	InitialInterval: 5 * time.Second,
	MaxInterval:     5 * time.Minute,
	Multiplier:      1.5,
}

// WhatsApp sends digest messages through a linked WhatsApp device
type WhatsApp struct {
	client  *whatsmeow.Client
	log     *logger.Logger
	metrics *metrics.Collector
	backoff Backoff

	mu              sync.RWMutex
	connected       bool
	cancelReconnect context.CancelFunc
}

// New opens the session store and prepares (but does not connect) the client
func New(ctx context.Context, cfg Config, log *logger.Logger, m *metrics.Collector) (*WhatsApp, error) {
	container, err := sqlstore.New(ctx, cfg.Driver, cfg.DSN, waLog.Stdout("Database", cfg.LogLevel, true))
	if err != nil {
		return nil, fmt.Errorf("failed to open whatsapp session store: %w", err)
	}

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load whatsapp device: %w", err)
	}

	name := cfg.DeviceName
	if name == "" {
		name = "autolog"
	}
	store.SetOSInfo(name, [3]uint32{0, 1, 0})
	device.Platform = name

	w := &WhatsApp{
		client:  whatsmeow.NewClient(device, waLog.Stdout("Client", cfg.LogLevel, true)),
		log:     log.Component("notify"),
		metrics: m,
		backoff: DefaultBackoff,
	}
	w.client.AddEventHandler(w.handleEvent)

	return w, nil
}

func (w *WhatsApp) setConnected(v bool) {
	w.connected = v
	w.metrics.SetNotifierConnected(v)
}

func (w *WhatsApp) handleEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.Connected:
		w.mu.Lock()
		w.setConnected(true)
		if w.cancelReconnect != nil {
			w.cancelReconnect()
			w.cancelReconnect = nil
		}
		w.mu.Unlock()
		w.log.Info("WhatsApp notifier connected")

	case *events.Disconnected:
		w.mu.Lock()
		w.setConnected(false)
		idle := w.cancelReconnect == nil
		w.mu.Unlock()

		w.log.Warn("WhatsApp notifier disconnected")
		if idle {
			go w.reconnect()
		}

	case *events.LoggedOut:
		w.mu.Lock()
		w.setConnected(false)
		w.mu.Unlock()
		w.log.Warnf("WhatsApp session logged out (reason %v); restart to link again", v.Reason)

	case *events.StreamError:
		w.log.Errorf("WhatsApp stream error: %v", v)
	}
}

func (w *WhatsApp) reconnect() {
	w.mu.Lock()
	if w.connected || w.cancelReconnect != nil {
		w.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.cancelReconnect = cancel
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.cancelReconnect = nil
		w.mu.Unlock()
	}()

	interval := w.backoff.InitialInterval
	for attempt := 1; attempt <= w.backoff.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}

		if w.client.IsConnected() {
			w.mu.Lock()
			w.setConnected(true)
			w.mu.Unlock()
			return
		}

		w.log.Infof("Reconnection attempt %d/%d", attempt, w.backoff.MaxRetries)
		if err := w.client.Connect(); err != nil {
			w.log.WarnErr(fmt.Sprintf("Reconnection attempt %d failed", attempt), err)
			interval = w.backoff.Next(interval)
			continue
		}
		return
	}

	w.log.Error("All reconnection attempts failed", nil)
}

// Connect resumes a stored session, or starts QR pairing in the background
// when the device has never been linked
func (w *WhatsApp) Connect(ctx context.Context) error {
	if w.client.Store.ID == nil {
		w.log.Info("No WhatsApp session found, starting QR pairing")
		go w.pair(ctx)
		return nil
	}

	if err := w.client.Connect(); err != nil {
		return fmt.Errorf("failed to connect whatsapp client: %w", err)
	}

	w.mu.Lock()
	w.setConnected(true)
	w.mu.Unlock()
	w.log.Infof("WhatsApp session resumed for %s", w.client.Store.ID.String())
	return nil
}

func (w *WhatsApp) pair(ctx context.Context) {
	const attempts = 5

	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return
		}

		qrCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
		qrChan, err := w.client.GetQRChannel(qrCtx)
		if err != nil {
			cancel()
			w.log.Errorf("Failed to get QR channel: %v", err)
			return
		}

		if !w.client.IsConnected() {
			if err := w.client.Connect(); err != nil {
				cancel()
				w.log.Errorf("Failed to connect for pairing: %v", err)
				continue
			}
		}

		paired := w.awaitPairing(qrCtx, qrChan)
		cancel()
		if paired {
			w.mu.Lock()
			w.setConnected(true)
			w.mu.Unlock()
			w.log.Info("WhatsApp device linked")
			return
		}
	}

	w.log.Error("WhatsApp pairing failed", nil)
}

func (w *WhatsApp) awaitPairing(ctx context.Context, qrChan <-chan whatsmeow.QRChannelItem) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case evt, ok := <-qrChan:
			if !ok {
				return false
			}
			switch evt.Event {
			case "code":
				fmt.Println(strings.Repeat("=", 48))
				fmt.Println("Scan with WhatsApp > Linked Devices > Link a Device")
				qrterminal.GenerateWithConfig(evt.Code, qrterminal.Config{
					Level:      qrterminal.M,
					Writer:     os.Stdout,
					HalfBlocks: true,
					QuietZone:  1,
				})
				fmt.Println(strings.Repeat("=", 48))
			case "success":
				return true
			case "timeout":
				w.log.Warn("QR code expired")
				return false
			default:
				w.log.Debugf("Pairing event: %s", evt.Event)
			}
		}
	}
}

// IsConnected reports a live, authenticated session
func (w *WhatsApp) IsConnected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.connected && w.client.IsConnected() && w.client.IsLoggedIn() && w.client.Store.ID != nil
}

// waitUntil polls cond every interval until it holds, the timeout passes or
// ctx is done.
func waitUntil(ctx context.Context, timeout, interval time.Duration, cond func() bool) bool {
	if cond() {
		return true
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return cond()
		case <-ticker.C:
			if cond() {
				return true
			}
		}
	}
}

// Send delivers text to the given JID, reconnecting first when needed
func (w *WhatsApp) Send(ctx context.Context, to, text string) error {
	jid, err := types.ParseJID(to)
	if err != nil {
		return fmt.Errorf("invalid JID %s: %w", to, err)
	}

	if w.client.Store.ID == nil {
		return ErrNotLinked
	}
	if !w.IsConnected() {
		if !w.client.IsConnected() {
			if err := w.Connect(ctx); err != nil {
				return err
			}
		}
		// The socket comes up before the login handshake finishes
		if !waitUntil(ctx, connectTimeout, 200*time.Millisecond, w.client.IsLoggedIn) {
			return ErrNotConnected
		}
	}

	msg := &waE2E.Message{Conversation: proto.String(text)}
	if _, err := w.client.SendMessage(ctx, jid, msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	w.log.Infof("Digest sent to %s", to)
	return nil
}

// Status describes the session for the detailed health check
func (w *WhatsApp) Status() map[string]interface{} {
	w.mu.RLock()
	defer w.mu.RUnlock()

	session := "none"
	if w.client.Store.ID != nil {
		session = w.client.Store.ID.String()
	}

	return map[string]interface{}{
		"connected":           w.connected && w.client.IsConnected(),
		"session_id":          session,
		"reconnection_active": w.cancelReconnect != nil,
	}
}

// Disconnect stops reconnection and closes the socket
func (w *WhatsApp) Disconnect() {
	w.mu.Lock()
	if w.cancelReconnect != nil {
		w.cancelReconnect()
		w.cancelReconnect = nil
	}
	w.setConnected(false)
	w.mu.Unlock()

	w.client.Disconnect()
	w.log.Info("WhatsApp notifier disconnected")
}
