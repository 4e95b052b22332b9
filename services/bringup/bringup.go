// Package bringup runs a board's one-shot bring-up: MapIO, electrical mode
// select, then MachineInit. Any failure is terminal.
package bringup

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"bringup-go/bus"
	"bringup-go/errcode"
	"bringup-go/services/bringup/boards"
	"bringup-go/services/bringup/internal/catalog"
	"bringup-go/services/bringup/internal/core"
	"bringup-go/services/bringup/internal/modesel"
	"bringup-go/services/bringup/internal/pins"
	"bringup-go/services/bringup/internal/regulator"
	"bringup-go/services/bringup/internal/sequencer"
	"bringup-go/types"
	"bringup-go/x/timex"
)

// Platform is the set of collaborators bring-up drives. Every field except
// Delay is required.
type Platform struct {
	IO        core.IOMapper
	Clocks    core.ClockController
	UARTs     core.UARTController
	Registers core.RegisterFile
	GPIO      core.GPIOController
	Buses     core.BusController
	IRQs      core.IRQController
	Framework core.DeviceFramework
	Display   core.DisplayDriver
	Delay     timex.Delayer // nil: timex.Sleeper
}

type Options struct {
	Logger zerolog.Logger
	Conn   *bus.Connection // nil: no state publication
}

// Report summarises a run. Rails are filled in when the companion chip's
// init hook runs, which the device framework may do during MachineInit.
type Report struct {
	Board     string            `json:"board"`
	Stage     Stage             `json:"stage"`
	Features  []types.Feature   `json:"features"`
	Pins      []string          `json:"pins"`
	I2C       map[int][]string  `json:"i2c"`
	Devices   []string          `json:"devices"`
	Rails     []string          `json:"rails,omitempty"`
	Consumers map[string]string `json:"consumers,omitempty"`
	Elapsed   time.Duration     `json:"elapsed"`
}

type i2cTable struct {
	index int
	cat   *catalog.Catalog
}

type Orchestrator struct {
	board boards.Board
	cfg   types.BoardConfiguration
	plat  Platform
	log   zerolog.Logger
	conn  *bus.Connection

	pins    *pins.Registry
	devices *catalog.Catalog
	i2c     []i2cTable

	mu       sync.Mutex
	stage    Stage
	failedAt Stage
	ran      bool
	seq      *sequencer.Sequencer
	pmicRan  bool
	rails    regulator.Result
	report   Report
	lastErr  error
	started  time.Time
	finished time.Time
}

// New validates the board against cfg and the platform. Nothing here
// touches hardware; every authoring defect is reported as a
// ConfigurationDefect.
func New(board boards.Board, cfg types.BoardConfiguration, plat Platform, opts Options) (*Orchestrator, error) {
	if err := checkPlatform(plat); err != nil {
		return nil, err
	}
	if board.Name == "" {
		return nil, errcode.New(errcode.ConfigurationDefect, "new", "", "board has no name", errcode.InvalidParams)
	}
	for _, f := range cfg.Features() {
		if !board.Knows(f) {
			return nil, errcode.New(errcode.ConfigurationDefect, "new", string(f), "feature not declared by "+board.Name, errcode.InvalidParams)
		}
	}

	devs, err := catalog.New(board.Devices...)
	if err != nil {
		return nil, err
	}
	seen := map[int]bool{}
	var tables []i2cTable
	for _, b := range board.I2C {
		if seen[b.Index] {
			return nil, errcode.New(errcode.ConfigurationDefect, "new", "i2c"+strconv.Itoa(b.Index), "bus declared twice", errcode.InvalidParams)
		}
		seen[b.Index] = true
		for _, d := range b.Devices {
			if d.Bus.Kind != types.BusI2C || d.Bus.Index != b.Index {
				return nil, errcode.New(errcode.ConfigurationDefect, "new", d.Key(), "device not on i2c"+strconv.Itoa(b.Index), errcode.UnknownBus)
			}
		}
		c, err := catalog.New(b.Devices...)
		if err != nil {
			return nil, err
		}
		tables = append(tables, i2cTable{index: b.Index, cat: c})
	}

	if err := regulator.Validate(board.Rails); err != nil {
		return nil, err
	}
	if len(board.Rails.Rails) > 0 && !hasPMIC(board) {
		return nil, errcode.New(errcode.ConfigurationDefect, "new", board.Rails.Chip, "rails declared without a companion chip device", errcode.InvalidParams)
	}
	if board.LCDDevice != "" {
		if err := sequencer.Validate(board.LCDPower); err != nil {
			return nil, err
		}
	}
	if err := modesel.Validate(board.ModeSelect); err != nil {
		return nil, err
	}

	if plat.Delay == nil {
		plat.Delay = timex.Sleeper{}
	}
	log := opts.Logger.With().Str("board", board.Name).Logger()
	return &Orchestrator{
		board:   board,
		cfg:     cfg,
		plat:    plat,
		log:     log,
		conn:    opts.Conn,
		pins:    pins.NewRegistry(plat.GPIO),
		devices: devs,
		i2c:     tables,
		report: Report{
			Board:    board.Name,
			Features: cfg.Features(),
			I2C:      map[int][]string{},
		},
	}, nil
}

func checkPlatform(p Platform) error {
	missing := ""
	switch {
	case p.IO == nil:
		missing = "IO"
	case p.Clocks == nil:
		missing = "Clocks"
	case p.UARTs == nil:
		missing = "UARTs"
	case p.Registers == nil:
		missing = "Registers"
	case p.GPIO == nil:
		missing = "GPIO"
	case p.Buses == nil:
		missing = "Buses"
	case p.IRQs == nil:
		missing = "IRQs"
	case p.Framework == nil:
		missing = "Framework"
	case p.Display == nil:
		missing = "Display"
	}
	if missing != "" {
		return errcode.New(errcode.ConfigurationDefect, "new", missing, "platform collaborator missing", errcode.InvalidParams)
	}
	return nil
}

func hasPMIC(b boards.Board) bool {
	for _, ib := range b.I2C {
		for _, d := range ib.Devices {
			if d.Name != b.PMIC {
				continue
			}
			if _, ok := d.Payload.(types.PMICPlatformData); ok {
				return true
			}
		}
	}
	return false
}

// Run executes every stage once, in order. The first failure moves the
// orchestrator to StageFailed and is returned; later calls return
// AlreadyRun.
func (o *Orchestrator) Run() (Report, error) {
	o.mu.Lock()
	if o.ran {
		o.mu.Unlock()
		return o.Report(), errcode.New(errcode.ConfigurationDefect, "run", o.board.Name, "bring-up already ran", errcode.AlreadyRun)
	}
	o.ran = true
	o.started = time.Now()
	o.mu.Unlock()

	stages := []struct {
		s  Stage
		fn func() error
	}{
		{StageMapIO, o.mapIO},
		{StageModeSelect, o.modeSelect},
		{StageMachineInit, o.machineInit},
	}

	for _, st := range stages {
		o.setStage(st.s)
		o.publishState(st.s, statusRunning, nil)
		o.log.Info().Str("stage", st.s.String()).Msg("stage start")

		if err := st.fn(); err != nil {
			o.fail(st.s, err)
			return o.Report(), err
		}
		o.log.Debug().Str("stage", st.s.String()).Msg("stage done")
	}

	o.mu.Lock()
	o.stage = StageComplete
	o.finished = time.Now()
	o.mu.Unlock()
	o.publishState(StageComplete, statusDone, nil)
	rep := o.Report()
	o.log.Info().Dur("elapsed", rep.Elapsed).Int("devices", len(rep.Devices)).Msg("bring-up complete")
	return rep, nil
}

// Stage returns the current stage.
func (o *Orchestrator) Stage() Stage {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stage
}

// Err returns the failure that ended the run, if any.
func (o *Orchestrator) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// FailedAt returns the stage that aborted the run, if it failed.
func (o *Orchestrator) FailedAt() (Stage, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.failedAt, o.stage == StageFailed
}

// PowerControl returns the panel power sequencer once MachineInit has
// installed it.
func (o *Orchestrator) PowerControl() (core.PowerController, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.seq == nil {
		return nil, false
	}
	return o.seq, true
}

// Report returns a snapshot of what has been brought up so far.
func (o *Orchestrator) Report() Report {
	o.mu.Lock()
	defer o.mu.Unlock()
	r := o.report
	r.Stage = o.stage
	r.Features = append([]types.Feature(nil), r.Features...)
	r.Pins = nil
	for _, p := range o.pins.Reserved() {
		r.Pins = append(r.Pins, p.String())
	}
	r.Devices = append([]string(nil), r.Devices...)
	r.I2C = make(map[int][]string, len(o.report.I2C))
	for k, v := range o.report.I2C {
		r.I2C[k] = append([]string(nil), v...)
	}
	r.Rails = nil
	for _, cr := range o.rails.Rails {
		r.Rails = append(r.Rails, cr.Constraint.Name)
	}
	if len(o.rails.Consumers) > 0 {
		r.Consumers = make(map[string]string, len(o.rails.Consumers))
		for k, v := range o.rails.Consumers {
			r.Consumers[k] = v
		}
	}
	if !o.started.IsZero() {
		end := o.finished
		if end.IsZero() {
			end = time.Now()
		}
		r.Elapsed = end.Sub(o.started)
	}
	return r
}

// ---------------- Stages ----------------

func (o *Orchestrator) mapIO() error {
	if err := o.plat.IO.MapIO(o.board.IODesc); err != nil {
		return hwErr("map_io", "iodesc", err)
	}
	if err := o.plat.Clocks.InitClocks(o.board.XtalHz); err != nil {
		return hwErr("init_clocks", strconv.FormatUint(uint64(o.board.XtalHz), 10)+"Hz", err)
	}
	if err := o.plat.UARTs.InitUARTs(o.board.UARTs); err != nil {
		return hwErr("init_uarts", "uart", err)
	}
	return nil
}

func (o *Orchestrator) modeSelect() error {
	return modesel.Apply(o.plat.Registers, o.board.ModeSelect)
}

func (o *Orchestrator) machineInit() error {
	for _, cd := range o.board.ControllerData {
		if err := o.plat.Buses.SetPlatformData(cd.Controller, cd.Data); err != nil {
			return hwErr("set_platform_data", cd.Controller, err)
		}
	}

	if o.board.LCDDevice != "" {
		if err := o.installPowerControl(); err != nil {
			return err
		}
	}

	for _, t := range o.i2c {
		devs := t.cat.Resolve(o.cfg)
		for i, d := range devs {
			if d.Name != o.board.PMIC {
				continue
			}
			if pd, ok := d.Payload.(types.PMICPlatformData); ok {
				pd.Init = o.pmicInit
				devs[i] = d.WithPayload(pd)
			}
		}
		if err := o.configureIRQs(devs); err != nil {
			return err
		}
		if err := o.plat.Buses.RegisterBoardInfo(t.index, devs); err != nil {
			return hwErr("register_board_info", "i2c"+strconv.Itoa(t.index), err)
		}
		keys := keysOf(devs)
		o.mu.Lock()
		o.report.I2C[t.index] = keys
		o.mu.Unlock()
		o.log.Debug().Int("bus", t.index).Strs("devices", keys).Msg("i2c board info registered")
	}

	devs := o.devices.Resolve(o.cfg)
	if err := o.configureIRQs(devs); err != nil {
		return err
	}
	keys := keysOf(devs)
	if err := o.plat.Framework.RegisterAll(devs); err != nil {
		return hwErr("register_devices", "", err)
	}
	o.mu.Lock()
	o.report.Devices = keys
	o.mu.Unlock()
	o.log.Info().Strs("devices", keys).Msg("platform devices registered")
	return nil
}

func (o *Orchestrator) installPowerControl() error {
	seq := o.board.LCDPower
	lines, err := o.pins.ReserveAll(seq.Owner, seq.Pins())
	if err != nil {
		return err
	}
	s, err := sequencer.New(seq, lines, o.plat.Delay, sequencer.Options{Logger: o.log, Conn: o.conn})
	if err != nil {
		return err
	}
	if err := o.plat.Display.InstallPowerControl(o.board.LCDDevice, s); err != nil {
		return hwErr("install_power_control", o.board.LCDDevice, err)
	}
	o.mu.Lock()
	o.seq = s
	o.mu.Unlock()
	return nil
}

func (o *Orchestrator) configureIRQs(devs []types.PeripheralDescriptor) error {
	for _, d := range devs {
		for _, r := range d.IRQs() {
			if err := o.plat.IRQs.ConfigureIRQ(int(r.Start), r.Trigger); err != nil {
				return hwErr("configure_irq", d.Key()+" irq"+strconv.Itoa(int(r.Start)), err)
			}
		}
	}
	return nil
}

// pmicInit is bound into the companion chip's platform data and runs once
// when the chip is discovered.
func (o *Orchestrator) pmicInit(r types.RailRegistrar) error {
	o.mu.Lock()
	if o.pmicRan {
		o.mu.Unlock()
		return errcode.New(errcode.ConfigurationDefect, "pmic_init", o.board.Rails.Chip, "init already ran", errcode.AlreadyRun)
	}
	o.pmicRan = true
	o.mu.Unlock()

	res, err := regulator.Instantiate(r, o.pins, o.cfg, o.board.Rails)
	o.mu.Lock()
	o.rails = res
	o.mu.Unlock()
	if err != nil {
		o.log.Error().Err(err).Str("chip", o.board.Rails.Chip).Str("resource", errcode.ResourceOf(err)).Msg("rail instantiation failed")
		return err
	}
	o.log.Info().Str("chip", res.Chip).Int("rails", len(res.Rails)).Msg("rails instantiated")
	return nil
}

// ---------------- Failure & state ----------------

func (o *Orchestrator) setStage(s Stage) {
	o.mu.Lock()
	o.stage = s
	o.mu.Unlock()
}

func (o *Orchestrator) fail(at Stage, err error) {
	o.mu.Lock()
	o.stage = StageFailed
	o.failedAt = at
	o.lastErr = err
	o.finished = time.Now()
	o.mu.Unlock()

	o.log.Error().
		Err(err).
		Str("stage", at.String()).
		Str("resource", errcode.ResourceOf(err)).
		Str("code", string(errcode.Of(err))).
		Msg("bring-up aborted")
	o.publishState(at, statusFailed, err)
}

func (o *Orchestrator) publishState(s Stage, status string, err error) {
	if o.conn == nil {
		return
	}
	st := types.BringupState{Stage: s.String(), Status: status, TS: timex.NowMs()}
	if err != nil {
		st.Error = err.Error()
		st.Resource = errcode.ResourceOf(err)
	}
	o.conn.Publish(o.conn.NewMessage(bus.T("bringup", "state"), st, true))
}

// hwErr tags a collaborator failure as HardwareUnavailable unless it already
// carries a class.
func hwErr(op, res string, err error) error {
	var e *errcode.E
	if errors.As(err, &e) {
		return err
	}
	return errcode.New(errcode.HardwareUnavailable, op, res, "", err)
}

func keysOf(devs []types.PeripheralDescriptor) []string {
	out := make([]string, len(devs))
	for i, d := range devs {
		out[i] = d.Key()
	}
	return out
}

// Pins returns the reserved pins in name order.
func (o *Orchestrator) Pins() []types.Pin { return o.pins.Reserved() }
