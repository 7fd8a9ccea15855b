// Package board emulates a TeCoLab board behind the serial protocol.
//
// A [Board] implements [protocol.Port]: frames written to it are handled
// like the firmware does and the answers become readable. Two heaters and
// a fan act on a lumped thermal [Plant] integrated in virtual time, so the
// whole runtime can be exercised without hardware.
//
// The temperature registers follow the host decoding order: heater 1 at
// 0x00, heater 2 at 0x02 and the room sensor at 0x04. The hardware
// firmware stores the room sensor first, so the board is not a byte
// accurate replica of its register map.
package board
