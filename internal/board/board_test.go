package board_test

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/tecolab/internal/board"
	"github.com/san-kum/tecolab/internal/protocol"
	"github.com/san-kum/tecolab/internal/thermal"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newBoard(t *testing.T) (*board.Board, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Unix(1000, 0)}
	b := board.New(board.Options{Plant: board.DefaultPlant(), Clock: clock.Now})
	return b, clock
}

func newLink(b *board.Board) *protocol.Link {
	log, _ := test.NewNullLogger()
	return protocol.NewLink(board.PortName, b, protocol.WithLogger(log), protocol.WithRetries(0))
}

func TestReadAmbientAtStart(t *testing.T) {
	b, _ := newBoard(t)
	temps, err := newLink(b).ReadTemperatures()
	require.NoError(t, err)
	assert.InDelta(t, 25, temps.Heater1, 1e-9)
	assert.InDelta(t, 25, temps.Heater2, 1e-9)
	assert.InDelta(t, 25, temps.Ambient, 1e-9)
}

func TestWriteSetsRegisters(t *testing.T) {
	b, _ := newBoard(t)
	require.NoError(t, newLink(b).WritePWMs(thermal.PWM{100, 50, 0}))
	pwm := b.PWM()
	assert.InDelta(t, 100, pwm[thermal.Heater1], 1e-9)
	assert.InDelta(t, 50, pwm[thermal.Heater2], 0.5)
	assert.Equal(t, 0.0, pwm[thermal.Fan])
}

func TestHeaterWarmsUp(t *testing.T) {
	b, clock := newBoard(t)
	link := newLink(b)
	require.NoError(t, link.WritePWMs(thermal.PWM{100, 0, 0}))

	clock.Advance(60 * time.Second)
	temps, err := link.ReadTemperatures()
	require.NoError(t, err)
	assert.Greater(t, temps.Heater1, 30.0)
	assert.Greater(t, temps.Heater1, temps.Heater2)
	assert.Greater(t, temps.Heater2, 25.0, "coupling heats the idle heater")
	assert.InDelta(t, 25, temps.Ambient, 1e-9)
}

func TestFanCools(t *testing.T) {
	still, clock1 := newBoard(t)
	fanned, clock2 := newBoard(t)
	still.SetTemperatures(60, 60)
	fanned.SetTemperatures(60, 60)
	require.NoError(t, newLink(fanned).WritePWMs(thermal.PWM{0, 0, 100}))

	clock1.Advance(30 * time.Second)
	clock2.Advance(30 * time.Second)
	assert.Less(t, fanned.Temperatures().Heater1, still.Temperatures().Heater1)
}

func TestExchange(t *testing.T) {
	b, clock := newBoard(t)
	link := newLink(b)
	temps, err := link.Exchange(thermal.PWM{20, 40, 60})
	require.NoError(t, err)
	assert.InDelta(t, 25, temps.Heater1, 1e-9)
	clock.Advance(time.Second)
	assert.InDelta(t, 60, b.PWM()[thermal.Fan], 0.5)
}

func TestOverheatLatch(t *testing.T) {
	b, clock := newBoard(t)
	link := newLink(b)
	require.NoError(t, link.WritePWMs(thermal.PWM{100, 100, 0}))
	b.SetTemperatures(101, 40)

	temps, err := link.ReadTemperatures()
	require.NoError(t, err)
	assert.True(t, link.Overheated())
	assert.True(t, b.Overheated())
	assert.InDelta(t, 101, temps.Heater1, 1e-9)

	b.SetTemperatures(30, 30)
	clock.Advance(10 * time.Second)
	_, err = link.ReadTemperatures()
	require.NoError(t, err)
	assert.True(t, link.Overheated(), "latched")
	assert.Less(t, b.Temperatures().Heater1, 30.0, "heaters off and fan on")
}

func TestUnknownCommand(t *testing.T) {
	b, _ := newBoard(t)
	_, err := b.Write([]byte{'Z', 0, 'Z'})
	require.NoError(t, err)
	resp, err := protocol.ReadFull(b, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{protocol.StatusUnknownCommand, protocol.StatusUnknownCommand}, resp)
}

func TestBadChecksumIsIgnored(t *testing.T) {
	b, _ := newBoard(t)
	frame := protocol.ReadRequest()
	frame[len(frame)-1]++
	_, err := b.Write(frame)
	require.NoError(t, err)
	resp, err := protocol.ReadFull(b, 8)
	assert.ErrorIs(t, err, protocol.ErrShortRead)
	assert.Empty(t, resp)

	_, err = newLink(b).ReadTemperatures()
	require.NoError(t, err)
}

func TestTemperatureRegisterLayout(t *testing.T) {
	b, clock := newBoard(t)
	require.NoError(t, newLink(b).WritePWMs(thermal.PWM{100, 0, 0}))
	clock.Advance(60 * time.Second)

	_, err := b.Write(protocol.BuildFrame(protocol.CmdRead, 0x00, 6))
	require.NoError(t, err)
	resp, err := protocol.ReadFull(b, 8)
	require.NoError(t, err)
	h1 := protocol.DecodeTemperature(resp[1], resp[2])
	h2 := protocol.DecodeTemperature(resp[3], resp[4])
	amb := protocol.DecodeTemperature(resp[5], resp[6])
	assert.Greater(t, h1, h2, "0x00 holds the driven heater")
	assert.Greater(t, h2, amb)
	assert.InDelta(t, 25, amb, 1e-9, "0x04 holds the room sensor")
}

func TestReadArbitraryRegisters(t *testing.T) {
	b, _ := newBoard(t)
	_, err := b.Write(protocol.BuildFrame(protocol.CmdRead, protocol.RegPWM, 40))
	require.NoError(t, err)
	resp, err := protocol.ReadFull(b, 18)
	require.NoError(t, err, "quantity is capped at 16 bytes")
	assert.Equal(t, protocol.Checksum(resp[:17]), resp[17])
}

func TestDiscoverSimulatedBoard(t *testing.T) {
	b, _ := newBoard(t)
	log, _ := test.NewNullLogger()
	d := &protocol.Discoverer{List: b.Lister(), Open: b.Opener(), Log: log}

	link, err := d.Discover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, board.PortName, link.Name())

	require.NoError(t, link.Close())
	_, err = b.Write(protocol.ReadRequest())
	assert.Error(t, err)

	_, err = b.Opener()("COM1")
	assert.Error(t, err)
}

func TestSensorResolution(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	b := board.New(board.Options{Plant: board.DefaultPlant(), Clock: clock.Now, Resolution: board.SensorResolution})
	b.SetTemperatures(31.37, 40.1)
	temps, err := newLink(b).ReadTemperatures()
	require.NoError(t, err)
	assert.Equal(t, 31.5, temps.Heater1)
	assert.Equal(t, 40.0, temps.Heater2)
}
