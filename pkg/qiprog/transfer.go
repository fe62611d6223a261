package qiprog

import "fmt"

// bmRequestType values for QiProg transfers: vendor-scoped, device recipient.
const (
	ctrlIn  = 0xc0 // device-to-host
	ctrlOut = 0x40 // host-to-device
)

// controlBus is the slice of a USB device handle the protocol needs. It is
// satisfied by *gousb.Device and by SimDevice, so every operation's exact
// wire encoding can run against simulated firmware.
type controlBus interface {
	Control(rType, request uint8, val, idx uint16, data []byte) (int, error)
}

// controlClient executes QiProg operations over a control bus. It is
// stateless beyond the bus reference; one instance per call is fine.
type controlClient struct {
	bus controlBus
}

// perform issues one control transfer. Payload buffers are sized exactly to
// the protocol field being moved; a transfer that moves fewer bytes is a
// transport error, never a partial success.
func (c controlClient) perform(req Request, payload []byte) error {
	rType := uint8(ctrlOut)
	if req.In {
		rType = ctrlIn
	}
	n, err := c.bus.Control(rType, req.Code, req.Value, req.Index, payload)
	if err != nil {
		return fmt.Errorf("%w: request 0x%02X: %v", ErrTransfer, req.Code, err)
	}
	if n != len(payload) {
		return fmt.Errorf("%w: request 0x%02X: short transfer (%d of %d bytes)",
			ErrTransfer, req.Code, n, len(payload))
	}
	return nil
}

func (c controlClient) capabilities() (Capabilities, error) {
	buf := make([]byte, capabilitiesWireSize)
	if err := c.perform(CapabilitiesRequest(), buf); err != nil {
		return Capabilities{}, err
	}
	return UnmarshalCapabilities(buf)
}

func (c controlClient) setBus(bus Bus) error {
	if bus == 0 {
		return fmt.Errorf("%w: bus selector unset", ErrInvalidArgument)
	}
	return c.perform(SetBusRequest(bus), nil)
}

func (c controlClient) chipIDs() ([NumChipIDs]ChipID, error) {
	buf := make([]byte, chipIDsWireSize)
	if err := c.perform(ChipIDRequest(), buf); err != nil {
		return [NumChipIDs]ChipID{}, err
	}
	return UnmarshalChipIDs(buf)
}

func (c controlClient) setAddress(start, end uint32) error {
	logDebug("setting address range", "start", fmt.Sprintf("0x%08X", start),
		"end", fmt.Sprintf("0x%08X", end))
	return c.perform(SetAddressRequest(), MarshalAddressRange(start, end))
}

func (c controlClient) read8(addr uint32) (uint8, error) {
	buf := make([]byte, 1)
	if err := c.perform(Read8Request(addr), buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (c controlClient) read16(addr uint32) (uint16, error) {
	buf := make([]byte, 2)
	if err := c.perform(Read16Request(addr), buf); err != nil {
		return 0, err
	}
	return GetLE16(buf), nil
}

func (c controlClient) read32(addr uint32) (uint32, error) {
	buf := make([]byte, 4)
	if err := c.perform(Read32Request(addr), buf); err != nil {
		return 0, err
	}
	return GetLE32(buf), nil
}

func (c controlClient) write8(addr uint32, data uint8) error {
	return c.perform(Write8Request(addr), []byte{data})
}

func (c controlClient) write16(addr uint32, data uint16) error {
	buf := make([]byte, 2)
	PutLE16(buf, data)
	return c.perform(Write16Request(addr), buf)
}

func (c controlClient) write32(addr uint32, data uint32) error {
	buf := make([]byte, 4)
	PutLE32(buf, data)
	return c.perform(Write32Request(addr), buf)
}
