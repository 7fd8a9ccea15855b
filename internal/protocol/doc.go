// Package protocol implements the TeCoLab serial wire protocol.
//
// Every host request is a frame made of a command byte, one or two
// address/length bytes, an optional payload and a trailing checksum equal
// to the sum of all preceding bytes modulo 256:
//
//	'R' | 0x00 | 0x06 | cs                      read the six temperature bytes
//	'W' | 0x06 | 0x03 | h1 | h2 | fan | cs      write the three PWM registers
//	'C' | h1 | h2 | fan | cs                    write PWMs and read temperatures
//	'A' | cs                                    acknowledge, the board echoes "AA"
//
// A [Link] wraps an open port and performs these exchanges with bounded
// retries. [Discoverer] finds the board among the serial ports of the host.
package protocol
