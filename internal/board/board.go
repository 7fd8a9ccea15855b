package board

import (
	"bytes"
	"io"
	"math"
	"sync"
	"time"

	"github.com/san-kum/tecolab/internal/integrators"
	"github.com/san-kum/tecolab/internal/protocol"
	"github.com/san-kum/tecolab/internal/thermal"
)

// Register addresses beyond the temperatures and duty cycles.
const (
	RegConnection  = 0x09
	RegTempStatus  = 0x0A
	registerCount  = 0x0B
	maxQuantity    = 16
	regHeater1PWM  = int(protocol.RegPWM)
	conversionTime = 100 * time.Millisecond
	integrationDt  = 0.05
)

// Temperature status values stored at RegTempStatus.
const (
	StatusLow byte = iota
	StatusHigh
	StatusOverheated
)

// HighTemperature is the threshold of StatusHigh in degrees Celsius.
const HighTemperature = 50.0

// Options configure a Board.
type Options struct {
	Plant Plant
	// Integrator advances the plant; nil selects RK4.
	Integrator thermal.Integrator
	// Clock drives the plant. Nil selects time.Now.
	Clock func() time.Time
	// Resolution quantizes sensor readings in degrees Celsius. Zero keeps
	// full precision.
	Resolution float64
}

// SensorResolution is the step of the 9-bit sensors fitted to the board.
const SensorResolution = 0.5

// DefaultOptions returns a board with the default plant, 9-bit sensors and
// wall-clock time.
func DefaultOptions() Options {
	return Options{Plant: DefaultPlant(), Resolution: SensorResolution}
}

// Board is an in-memory TeCoLab. It is safe for concurrent use.
type Board struct {
	mu sync.Mutex

	plant  Plant
	integ  thermal.Integrator
	clock  func() time.Time
	res    float64
	regs   [registerCount]byte
	x      thermal.State
	t      float64
	last   time.Time
	sensed time.Time

	out    bytes.Buffer
	closed bool
}

// New returns a board whose heaters start at ambient temperature.
func New(opts Options) *Board {
	if opts.Plant == (Plant{}) {
		opts.Plant = DefaultPlant()
	}
	if opts.Integrator == nil {
		opts.Integrator = integrators.NewRK4()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	b := &Board{
		plant: opts.Plant,
		integ: opts.Integrator,
		clock: opts.Clock,
		res:   opts.Resolution,
		x:     opts.Plant.Initial(),
	}
	b.last = b.clock()
	b.sensed = b.last
	b.convert()
	return b
}

// Write handles one frame and queues the answer.
func (b *Board) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, io.ErrClosedPipe
	}
	b.advance()
	b.handle(p)
	return len(p), nil
}

// Read returns queued answer bytes. Like a serial port that timed out, it
// returns zero bytes and no error when nothing is pending.
func (b *Board) Read(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, io.ErrClosedPipe
	}
	if b.out.Len() == 0 {
		return 0, nil
	}
	return b.out.Read(p)
}

// ResetInputBuffer discards unread answers.
func (b *Board) ResetInputBuffer() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.out.Reset()
	return nil
}

func (b *Board) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Reopen makes a closed board usable again, as reconnecting the cable
// would.
func (b *Board) Reopen() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = false
	b.out.Reset()
}

// Temperatures returns the true plant temperatures, without sensor
// quantization.
func (b *Board) Temperatures() thermal.Temperatures {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()
	return thermal.Temperatures{Heater1: b.x[0], Heater2: b.x[1], Ambient: b.plant.Ambient}
}

// PWM returns the duty cycles currently held in the registers.
func (b *Board) PWM() thermal.PWM {
	b.mu.Lock()
	defer b.mu.Unlock()
	var p thermal.PWM
	for i := range p {
		p[i] = protocol.DutyPercent(b.regs[regHeater1PWM+i])
	}
	return p
}

// Overheated reports whether the safety latch tripped.
func (b *Board) Overheated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.regs[RegTempStatus] == StatusOverheated
}

// SetTemperatures forces the plant state.
func (b *Board) SetTemperatures(h1, h2 float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.x = thermal.State{h1, h2}
	b.convert()
}

// applied returns the duty cycles acting on the plant. The overheat latch
// turns the heaters off and the fan to full speed.
func (b *Board) applied() thermal.PWM {
	if b.regs[RegTempStatus] == StatusOverheated {
		return thermal.PWM{0, 0, 100}
	}
	var p thermal.PWM
	for i := range p {
		p[i] = protocol.DutyPercent(b.regs[regHeater1PWM+i])
	}
	return p
}

// advance integrates the plant up to the current clock and refreshes the
// sensor registers once per conversion time.
func (b *Board) advance() {
	now := b.clock()
	elapsed := now.Sub(b.last).Seconds()
	if elapsed <= 0 {
		return
	}
	u := b.applied()
	for elapsed > 0 {
		dt := math.Min(integrationDt, elapsed)
		b.x = b.integ.Step(b.plant, b.x, u, b.t, dt)
		b.t += dt
		elapsed -= dt
	}
	b.last = now
	if now.Sub(b.sensed) >= conversionTime {
		b.sensed = now
		b.convert()
	}
}

// convert latches the sensor readings and updates the temperature status.
func (b *Board) convert() {
	temps := []float64{b.x[0], b.x[1], b.plant.Ambient}
	for i, v := range temps {
		lo, hi := protocol.EncodeTemperature(b.quantize(v))
		b.regs[2*i] = lo
		b.regs[2*i+1] = hi
	}
	h1, h2 := b.x[0], b.x[1]
	switch {
	case b.regs[RegTempStatus] == StatusOverheated:
	case h1 >= thermal.OverheatLimit || h2 >= thermal.OverheatLimit:
		b.regs[RegTempStatus] = StatusOverheated
	case h1 >= HighTemperature || h2 >= HighTemperature:
		b.regs[RegTempStatus] = StatusHigh
	default:
		b.regs[RegTempStatus] = StatusLow
	}
}

func (b *Board) quantize(v float64) float64 {
	if b.res <= 0 {
		return v
	}
	return math.Round(v/b.res) * b.res
}

func (b *Board) get(addr int) byte {
	if addr < 0 || addr >= registerCount {
		return 0
	}
	return b.regs[addr]
}

func (b *Board) set(addr int, v byte) {
	if addr < 0 || addr >= registerCount {
		return
	}
	b.regs[addr] = v
}

// handle answers one frame. Frames with a bad checksum get no answer.
func (b *Board) handle(msg []byte) {
	if len(msg) == 0 {
		return
	}
	var status byte
	if b.regs[RegTempStatus] == StatusOverheated {
		status |= protocol.StatusOverheated
	}
	valid := func(n int) bool {
		return len(msg) > n && protocol.Checksum(msg[:n]) == msg[n]
	}

	switch msg[0] {
	case protocol.CmdRead:
		if len(msg) < 3 {
			return
		}
		addr, qty := int(msg[1]), min(int(msg[2]), maxQuantity)
		if !valid(3) {
			return
		}
		answer := []byte{status}
		for i := 0; i < qty; i++ {
			answer = append(answer, b.get(addr+i))
		}
		b.reply(append(answer, protocol.Checksum(answer)))
	case protocol.CmdWrite:
		if len(msg) < 3 {
			return
		}
		addr, qty := int(msg[1]), min(int(msg[2]), maxQuantity)
		if !valid(3 + qty) {
			return
		}
		for i := 0; i < qty; i++ {
			b.set(addr+i, msg[3+i])
		}
		b.reply([]byte{status, status})
	case protocol.CmdControl:
		if !valid(4) {
			return
		}
		for i := 0; i < protocol.PWMBytes; i++ {
			b.set(regHeater1PWM+i, msg[1+i])
		}
		answer := append([]byte{status}, b.regs[:protocol.TemperatureBytes]...)
		b.reply(append(answer, protocol.Checksum(answer)))
	case protocol.CmdAck:
		if !valid(1) {
			return
		}
		b.reply(protocol.Probe)
	default:
		status |= protocol.StatusUnknownCommand
		b.reply([]byte{status, status})
	}
	b.set(RegConnection, 1)
}

func (b *Board) reply(answer []byte) {
	b.out.Write(answer)
}
