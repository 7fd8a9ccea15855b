package protocol

import (
	"math"

	"github.com/san-kum/tecolab/internal/thermal"
)

// Command bytes understood by the firmware.
const (
	CmdRead    byte = 'R'
	CmdWrite   byte = 'W'
	CmdControl byte = 'C'
	CmdAck     byte = 'A'
)

// Register map of the board.
const (
	RegTemperatures byte = 0x00
	RegPWM          byte = 0x06

	TemperatureBytes = 6
	PWMBytes         = 3
)

// Response lengths.
const (
	TemperatureResponseLen = 1 + TemperatureBytes + 1
	AckLen                 = 2
)

// Status bits carried in the first byte of every response.
const (
	StatusUnknownCommand byte = 0x01
	StatusOverheated     byte = 0xF0
)

// Probe is written during discovery; the board echoes it back.
var Probe = []byte("AA")

// Checksum returns the unsigned 8-bit sum of b.
func Checksum(b []byte) byte {
	var sum byte
	for _, c := range b {
		sum += c
	}
	return sum
}

// BuildFrame assembles cmd, fields and the trailing checksum.
func BuildFrame(cmd byte, fields ...byte) []byte {
	frame := make([]byte, 0, len(fields)+2)
	frame = append(frame, cmd)
	frame = append(frame, fields...)
	return append(frame, Checksum(frame))
}

// ParseFrame splits a frame built by BuildFrame back into its command and
// fields after verifying the checksum.
func ParseFrame(frame []byte) (byte, []byte, error) {
	if len(frame) < 2 {
		return 0, nil, ErrShortRead
	}
	body := frame[:len(frame)-1]
	if Checksum(body) != frame[len(frame)-1] {
		return 0, nil, ErrChecksum
	}
	fields := make([]byte, len(body)-1)
	copy(fields, body[1:])
	return body[0], fields, nil
}

// ReadRequest is the fixed frame asking for the six temperature bytes.
func ReadRequest() []byte {
	return BuildFrame(CmdRead, RegTemperatures, TemperatureBytes)
}

// WriteRequest encodes a PWM write frame.
func WriteRequest(p thermal.PWM) []byte {
	return BuildFrame(CmdWrite, RegPWM, PWMBytes, DutyByte(p[thermal.Heater1]), DutyByte(p[thermal.Heater2]), DutyByte(p[thermal.Fan]))
}

// ControlRequest encodes the combined write-and-read frame.
func ControlRequest(p thermal.PWM) []byte {
	return BuildFrame(CmdControl, DutyByte(p[thermal.Heater1]), DutyByte(p[thermal.Heater2]), DutyByte(p[thermal.Fan]))
}

// DutyByte converts a duty cycle in percent to the 0-255 register value.
func DutyByte(percent float64) byte {
	if math.IsNaN(percent) {
		return 0
	}
	v := math.Round(thermal.Clamp(percent, 0, 100) * 255 / 100)
	return byte(thermal.Clamp(v, 0, 255))
}

// DutyPercent is the inverse of DutyByte, up to rounding.
func DutyPercent(b byte) float64 {
	return float64(b) * 100 / 255
}

// DecodeTemperature converts a sign-magnitude pair of bytes in hundredths
// of a degree.
func DecodeTemperature(lo, hi byte) float64 {
	sign := 1.0
	if hi&0x80 != 0 {
		sign = -1.0
	}
	return sign * float64(int(hi&0x7F)<<8|int(lo)) / 100
}

// EncodeTemperature is the inverse of DecodeTemperature. Magnitudes beyond
// the 15-bit range saturate.
func EncodeTemperature(celsius float64) (lo, hi byte) {
	mag := math.Round(math.Abs(celsius) * 100)
	if mag > 0x7FFF {
		mag = 0x7FFF
	}
	m := uint16(mag)
	lo = byte(m)
	hi = byte(m >> 8)
	if celsius < 0 && m != 0 {
		hi |= 0x80
	}
	return lo, hi
}

// DecodeTemperatures parses an 8-byte temperature response. The returned
// status is the error byte reported by the board.
func DecodeTemperatures(resp []byte) (thermal.Temperatures, byte, error) {
	if len(resp) < TemperatureResponseLen {
		return thermal.Temperatures{}, 0, ErrShortRead
	}
	resp = resp[:TemperatureResponseLen]
	if Checksum(resp[:TemperatureResponseLen-1]) != resp[TemperatureResponseLen-1] {
		return thermal.Temperatures{}, 0, ErrChecksum
	}
	status := resp[0]
	if status&StatusUnknownCommand != 0 {
		return thermal.Temperatures{}, status, ErrUnknownCommand
	}
	return thermal.Temperatures{
		Heater1: DecodeTemperature(resp[1], resp[2]),
		Heater2: DecodeTemperature(resp[3], resp[4]),
		Ambient: DecodeTemperature(resp[5], resp[6]),
	}, status, nil
}

// EncodeTemperatures builds the response the board sends for a read of the
// temperature registers.
func EncodeTemperatures(status byte, t thermal.Temperatures) []byte {
	resp := make([]byte, 0, TemperatureResponseLen)
	resp = append(resp, status)
	for _, v := range []float64{t.Heater1, t.Heater2, t.Ambient} {
		lo, hi := EncodeTemperature(v)
		resp = append(resp, lo, hi)
	}
	return append(resp, Checksum(resp))
}
