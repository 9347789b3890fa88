package devices

import (
	"fmt"
	"sync"
)

// KeyboardDevice implements a very basic PS/2-style keyboard controller,
// adapted from core_engine/devices/keyboard.go to raise an ICS source
// when a key is pushed into its buffer, instead of relying on the guest
// to poll silently.
type KeyboardDevice struct {
	irq    IRQLine
	srcno  int
	lock   sync.Mutex
	buffer []byte
}

// NewKeyboardDevice creates a KeyboardDevice that signals srcno on irq
// whenever a key is pushed.
func NewKeyboardDevice(irq IRQLine, srcno int) *KeyboardDevice {
	return &KeyboardDevice{irq: irq, srcno: srcno}
}

// PushKey appends b to the input buffer and raises the keyboard interrupt.
func (k *KeyboardDevice) PushKey(b byte) {
	k.lock.Lock()
	defer k.lock.Unlock()
	k.buffer = append(k.buffer, b)
	if k.irq != nil {
		k.irq.SetIRQ(k.srcno, true)
	}
}

// HandleIO processes I/O operations for the keyboard device's status
// (0x64) and data (0x60) ports.
func (k *KeyboardDevice) HandleIO(port uint16, direction uint8, size uint8, data []byte) error {
	k.lock.Lock()
	defer k.lock.Unlock()

	if size != 1 {
		return fmt.Errorf("KeyboardDevice: I/O size %d not supported for port 0x%x", size, port)
	}

	if direction == IODirectionOut {
		return fmt.Errorf("KeyboardDevice: write to port 0x%x not supported in this model", port)
	}

	switch port {
	case KeyboardPortStatus:
		if len(k.buffer) > 0 {
			data[0] = 0x01
		} else {
			data[0] = 0x00
		}
	case KeyboardPortData:
		if len(k.buffer) > 0 {
			data[0] = k.buffer[0]
			k.buffer = k.buffer[1:]
			if len(k.buffer) == 0 && k.irq != nil {
				k.irq.SetIRQ(k.srcno, false)
			}
		} else {
			data[0] = 0x00
		}
	default:
		return fmt.Errorf("KeyboardDevice: unhandled IN from port 0x%x", port)
	}
	return nil
}
