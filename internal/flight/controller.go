package flight

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/roman-kulish/tello-pilot/internal/command"
	"github.com/roman-kulish/tello-pilot/internal/event"
	"github.com/roman-kulish/tello-pilot/internal/position"
	"github.com/roman-kulish/tello-pilot/internal/queue"
	"github.com/roman-kulish/tello-pilot/internal/record"
	"github.com/roman-kulish/tello-pilot/internal/telemetry"
	"github.com/roman-kulish/tello-pilot/internal/transceiver"
	"github.com/roman-kulish/tello-pilot/internal/video"
)

const (
	DefaultSampleTimeout = time.Second

	recordBacklog = 256
)

// Config holds the network and video settings of a Controller
type Config struct {
	CommandAddr      string
	LocalCommandAddr string
	TelemetryAddr    string
	VideoAddr        string
	FrameRate        int
	VideoBufferSize  int
	SampleTimeout    time.Duration
}

// DefaultConfig returns the addresses and video settings of a stock drone
func DefaultConfig() Config {
	return Config{
		CommandAddr:      transceiver.DefaultRemoteAddr,
		LocalCommandAddr: transceiver.DefaultLocalAddr,
		TelemetryAddr:    telemetry.DefaultAddr,
		VideoAddr:        video.DefaultAddr,
		FrameRate:        video.DefaultFrameRate,
		VideoBufferSize:  video.DefaultBufferSize,
		SampleTimeout:    DefaultSampleTimeout,
	}
}

// WithConfig replaces the default configuration
func WithConfig(cfg Config) func(*Controller) {
	return func(c *Controller) {
		c.config = cfg
	}
}

// WithLogger sets logger
func WithLogger(logger *slog.Logger) func(*Controller) {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithNetworkProbe replaces the check run before connecting
func WithNetworkProbe(probe transceiver.NetworkProbe) func(*Controller) {
	return func(c *Controller) {
		c.probe = probe
	}
}

// WithRecorder sets the writer receiving telemetry, response and position records
func WithRecorder(w record.Writer) func(*Controller) {
	return func(c *Controller) {
		c.recorder = w
	}
}

// WithFlightID sets the flight ID records are tagged with
func WithFlightID(id uuid.UUID) func(*Controller) {
	return func(c *Controller) {
		c.flightID = id
	}
}

// Controller is the public face of the drone. Commands are validated and
// checked against the drone state before they are sent; outcomes, telemetry
// and video are delivered as events.
//
// The position is dead-reckoned from commanded movements, applied when the
// command is queued. It is an estimate, not a measurement.
type Controller struct {
	config   Config
	logger   *slog.Logger
	probe    transceiver.NetworkProbe
	rules    *command.RuleSet
	recorder record.Writer
	flightID uuid.UUID

	transceiver *transceiver.Transceiver
	queue       *queue.Processor
	telemetry   *telemetry.Listener
	composer    *video.Composer
	receiver    *video.Receiver
	events      *event.Hub[Event]

	sdkMode atomic.Bool
	flying  atomic.Bool

	posMu        sync.Mutex // serializes position updates
	pos          atomic.Pointer[position.Estimate]
	lastMovement *command.Command

	records chan record.Record

	isRunning atomic.Bool
	stopped   atomic.Bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// New creates a new Controller
func New(opts ...func(*Controller)) (*Controller, error) {
	c := &Controller{
		config:   DefaultConfig(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		probe:    transceiver.InterfaceProbe,
		rules:    command.DefaultRuleSet(),
		flightID: uuid.New(),
		events:   event.NewHub[Event](),
		records:  make(chan record.Record, recordBacklog),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.transceiver = transceiver.New(
		transceiver.WithRemoteAddr(c.config.CommandAddr),
		transceiver.WithLocalAddr(c.config.LocalCommandAddr),
		transceiver.WithNetworkProbe(c.probe),
		transceiver.WithLogger(c.logger.With(slog.String("channel", "command"))),
	)

	c.queue = queue.New(c.transceiver,
		queue.WithResultHandler(c.handleResult),
		queue.WithAcceptHandler(c.applyMovement),
		queue.WithLogger(c.logger),
	)

	c.telemetry = telemetry.NewListener(
		telemetry.WithAddr(c.config.TelemetryAddr),
		telemetry.WithLogger(c.logger),
	)

	composer, err := video.NewComposer(
		video.WithFrameRate(c.config.FrameRate),
		video.WithBufferSize(c.config.VideoBufferSize),
		video.WithLogger(c.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("creating video composer: %w", err)
	}
	c.composer = composer
	c.receiver = video.NewReceiver(composer,
		video.WithReceiverAddr(c.config.VideoAddr),
		video.WithReceiverLogger(c.logger),
	)

	c.pos.Store(&position.Estimate{Confirmed: true, UpdatedAt: time.Now()})

	return c, nil
}

// FlightID returns the ID records are tagged with
func (c *Controller) FlightID() uuid.UUID {
	return c.flightID
}

// Start binds the telemetry and video ports and starts delivering events
func (c *Controller) Start(ctx context.Context) error {
	if c.stopped.Load() {
		return fmt.Errorf("controller is stopped")
	}
	if !c.isRunning.CompareAndSwap(false, true) {
		return fmt.Errorf("controller is already running")
	}

	ctx, c.cancel = context.WithCancel(ctx)

	fail := func(err error) error {
		c.cancel()
		c.isRunning.Store(false)
		return err
	}

	if err := c.telemetry.Start(ctx); err != nil {
		return fail(fmt.Errorf("starting telemetry listener: %w", err))
	}
	if err := c.receiver.Start(ctx); err != nil {
		c.telemetry.Stop()
		return fail(fmt.Errorf("starting video receiver: %w", err))
	}
	if err := c.queue.Start(ctx); err != nil {
		c.receiver.Stop()
		c.telemetry.Stop()
		return fail(fmt.Errorf("starting command queue: %w", err))
	}

	states, unsubscribeStates := c.transceiver.StateChanges(16)
	updates, unsubscribeUpdates := c.telemetry.Updates(16)

	c.events.Start()

	c.wg.Add(3)
	go c.forwardStates(ctx, states, unsubscribeStates)
	go c.forwardTelemetry(ctx, updates, unsubscribeUpdates)
	go c.forwardVideo(ctx)

	if c.recorder != nil {
		c.wg.Add(1)
		go c.writeRecords(ctx)
	}

	c.logger.Info("flight controller started", slog.String("flight", c.flightID.String()))
	return nil
}

// Stop stops all listeners, disconnects and closes event subscriptions.
// A stopped Controller cannot be started again.
func (c *Controller) Stop() {
	// isRunning is cleared last, results completed during teardown are still recorded
	if !c.isRunning.Load() || !c.stopped.CompareAndSwap(false, true) {
		return
	}

	c.queue.Stop()
	c.cancel()
	c.wg.Wait()

	c.receiver.Stop()
	c.telemetry.Close()

	if err := c.transceiver.Disconnect(); err != nil {
		c.logger.Warn("disconnecting", slog.Any("error", err))
	}

	c.events.Close()
	c.isRunning.Store(false)

	c.logger.Info("flight controller stopped", slog.String("flight", c.flightID.String()))
}

// Connect opens the command channel
func (c *Controller) Connect(ctx context.Context) error {
	return c.transceiver.Connect(ctx)
}

// Disconnect closes the command channel
func (c *Controller) Disconnect() error {
	return c.transceiver.Disconnect()
}

// ClearError resets a failed command channel so Connect can be retried
func (c *Controller) ClearError() error {
	return c.transceiver.ClearError()
}

// ConnectionState returns the state of the command channel
func (c *Controller) ConnectionState() transceiver.ConnectionState {
	return c.transceiver.State()
}

// Subscribe subscribes to controller events
func (c *Controller) Subscribe(buffer int) (<-chan Event, func()) {
	return c.events.Subscribe(buffer)
}

// Position returns the current position estimate
func (c *Controller) Position() position.Estimate {
	return *c.pos.Load()
}

// Telemetry returns the latest telemetry snapshot, or nil if none was received yet
func (c *Controller) Telemetry() *telemetry.Telemetry {
	return c.telemetry.Get()
}

// Get implements telemetry.Provider
func (c *Controller) Get() *telemetry.Telemetry {
	return c.telemetry.Get()
}

// InSDKMode returns true once the drone acknowledged the SDK mode command
func (c *Controller) InSDKMode() bool {
	return c.sdkMode.Load()
}

// IsFlying returns true between acknowledged takeoff and land
func (c *Controller) IsFlying() bool {
	return c.flying.Load()
}

// Pending returns the number of queued commands not yet sent
func (c *Controller) Pending() int {
	return c.queue.Len()
}

// Video returns the composer frames are assembled by
func (c *Controller) Video() *video.Composer {
	return c.composer
}

// Listeners returns the bound telemetry and video addresses, nil when not started
func (c *Controller) Listeners() (telemetryAddr, videoAddr string) {
	if a := c.telemetry.LocalAddr(); a != nil {
		telemetryAddr = a.String()
	}
	if a := c.receiver.LocalAddr(); a != nil {
		videoAddr = a.String()
	}
	return
}

// Submit validates the command, checks the drone state allows it and hands it
// to the queue. Once queued, its effect is applied to the position estimate.
func (c *Controller) Submit(ctx context.Context, kind command.Kind, args ...any) (*queue.Ticket, error) {
	cmd, err := c.rules.Validate(kind, args...)
	if err != nil {
		return nil, err
	}
	return c.submit(ctx, cmd)
}

// SubmitText parses a command in wire format, e.g. "forward 100", and submits it
func (c *Controller) SubmitText(ctx context.Context, line string) (*queue.Ticket, error) {
	cmd, err := c.rules.Parse(line)
	if err != nil {
		return nil, err
	}
	return c.submit(ctx, cmd)
}

// Do submits the command and waits for its outcome. Failed commands return a *CommandError.
func (c *Controller) Do(ctx context.Context, kind command.Kind, args ...any) (*command.Value, error) {
	t, err := c.Submit(ctx, kind, args...)
	if err != nil {
		return nil, err
	}
	return Await(ctx, t)
}

// Await waits for a submitted command and interprets its outcome
func Await(ctx context.Context, t *queue.Ticket) (*command.Value, error) {
	r, err := t.Wait(ctx)
	if err != nil {
		return nil, err
	}

	switch {
	case r.Err != nil:
		return nil, &CommandError{Command: r.Command.String(), Err: r.Err}
	case r.Response.Err != nil:
		return nil, &CommandError{Command: r.Command.String(), Err: r.Response.Err}
	}

	v, err := command.ParseResponse(r.Command.Rule(), r.Response.Text())
	if err != nil {
		return nil, &CommandError{Command: r.Command.String(), Err: err}
	}
	return v, nil
}

func (c *Controller) submit(ctx context.Context, cmd *command.Command) (*queue.Ticket, error) {
	if !c.isRunning.Load() {
		return nil, ErrNotStarted
	}
	if err := c.checkPreconditions(cmd); err != nil {
		return nil, err
	}

	t, err := c.queue.Submit(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("submitting %q: %w", cmd.String(), err)
	}
	return t, nil
}

func (c *Controller) checkPreconditions(cmd *command.Command) error {
	if cmd.Kind() != command.EnterSDKMode && !c.sdkMode.Load() {
		return &PreconditionError{Kind: cmd.Kind(), Err: ErrSDKModeRequired}
	}
	if cmd.Rule().MustBeFlying() && !c.flying.Load() {
		return &PreconditionError{Kind: cmd.Kind(), Err: ErrNotFlying}
	}
	return nil
}

// handleResult runs on the sending goroutine before the ticket completes, so
// state changes are visible to the caller once it observes the result.
func (c *Controller) handleResult(r queue.Result) {
	cmd := r.Command
	logger := c.logger.With(slog.String("command", cmd.String()), slog.String("request", r.ID.String()))

	if r.Err != nil {
		logger.Error("command exception", slog.Any("error", r.Err))
		c.events.Publish(ExceptionThrown{RequestID: r.ID, Command: cmd, Err: r.Err})
		c.record(record.Response{
			FlightID:  c.flightID,
			RequestID: r.ID,
			Command:   cmd.String(),
			Error:     r.Err.Error(),
			Timestamp: time.Now(),
		})
		return
	}

	resp := r.Response
	ev := ResponseReceived{
		RequestID: r.ID,
		Command:   cmd,
		Response:  strings.TrimSpace(resp.Text()),
		Elapsed:   resp.Elapsed,
		Err:       resp.Err,
	}

	var value *command.Value
	if ev.Err == nil {
		value, ev.Err = command.ParseResponse(cmd.Rule(), resp.Text())
	}

	rec := record.Response{
		FlightID:  c.flightID,
		RequestID: r.ID,
		Command:   cmd.String(),
		Body:      ev.Response,
		Elapsed:   ev.Elapsed,
		Timestamp: time.Now(),
	}

	if ev.Err != nil {
		logger.Warn("command failed", slog.Any("error", ev.Err), slog.Duration("elapsed", ev.Elapsed))
		rec.Error = ev.Err.Error()
	} else {
		logger.Debug("command succeeded", slog.String("response", ev.Response), slog.Duration("elapsed", ev.Elapsed))
		c.applyResponse(cmd)
	}

	c.events.Publish(ev)
	c.record(rec)

	if ev.Err == nil && cmd.Rule().Category() == command.CategoryRead {
		c.events.Publish(ValueReceived{RequestID: r.ID, Command: cmd, Value: value})
	}
}

// applyResponse updates the drone state after an acknowledged command
func (c *Controller) applyResponse(cmd *command.Command) {
	switch cmd.Kind() {
	case command.EnterSDKMode:
		c.sdkMode.Store(true)
	case command.TakeOff:
		c.flying.Store(true)
	case command.Land, command.EmergencyStop:
		c.flying.Store(false)
	}

	c.confirmMovement(cmd)
}

func (c *Controller) record(r record.Record) {
	if c.recorder == nil || !c.isRunning.Load() {
		return
	}

	select {
	case c.records <- r:
	default:
		c.logger.Warn("record backlog full, dropping record", slog.String("type", string(r.Type())))
	}
}

func (c *Controller) forwardStates(ctx context.Context, states <-chan transceiver.StateChange, unsubscribe func()) {
	defer c.wg.Done()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-states:
			if !ok {
				return
			}
			c.logger.Info("connection state changed", slog.String("from", s.From.String()), slog.String("to", s.To.String()))
			c.events.Publish(ConnectionStateChanged{StateChange: s})
		}
	}
}

func (c *Controller) forwardTelemetry(ctx context.Context, updates <-chan *telemetry.Telemetry, unsubscribe func()) {
	defer c.wg.Done()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-updates:
			if !ok {
				return
			}
			c.record(record.Telemetry{FlightID: c.flightID, Snapshot: t})
			c.events.Publish(StateChanged{Telemetry: t, Position: c.Position()})
		}
	}
}

func (c *Controller) forwardVideo(ctx context.Context) {
	defer c.wg.Done()

	for ctx.Err() == nil {
		if s, ok := c.composer.TryGetSample(ctx, c.config.SampleTimeout); ok {
			c.events.Publish(VideoSampleReady{Sample: s})
		}
	}
}

func (c *Controller) writeRecords(ctx context.Context) {
	defer c.wg.Done()

	write := func(r record.Record) {
		if err := c.recorder.Write(context.WithoutCancel(ctx), r); err != nil {
			c.logger.Error("writing record", slog.String("type", string(r.Type())), slog.Any("error", err))
		}
	}

	for {
		select {
		case r := <-c.records:
			write(r)
		case <-ctx.Done():
			for { // drain what is left
				select {
				case r := <-c.records:
					write(r)
				default:
					return
				}
			}
		}
	}
}
