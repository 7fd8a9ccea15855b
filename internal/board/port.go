package board

import (
	"fmt"

	"github.com/san-kum/tecolab/internal/protocol"
)

// PortName is the name the simulated board is listed under.
const PortName = "sim://tecolab"

// Lister lists only the simulated board.
func (b *Board) Lister() protocol.Lister {
	return func() ([]string, error) {
		return []string{PortName}, nil
	}
}

// Opener opens the simulated board by name.
func (b *Board) Opener() protocol.Opener {
	return func(name string) (protocol.Port, error) {
		if name != PortName {
			return nil, fmt.Errorf("board: no such port %q", name)
		}
		b.Reopen()
		return b, nil
	}
}
