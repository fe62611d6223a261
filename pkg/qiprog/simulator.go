package qiprog

import "fmt"

// ControlRecord captures one control transfer the simulator served, for
// inspection within tests.
type ControlRecord struct {
	RType   uint8
	Code    uint8
	Value   uint16
	Index   uint16
	Payload []byte // host-to-device payload, copied
}

// ControlHook lets a test script the simulator's response to a transfer,
// including fault injection. Returning a short count or an error reaches the
// host as a transport failure.
type ControlHook func(rType, request uint8, val, idx uint16, data []byte) (int, error)

// SimDevice emulates QiProg programmer firmware behind the control-transfer
// boundary. It serves the same requests real firmware does, against an
// in-memory flash array, and records every transfer it sees. Useful both for
// unit tests and for exercising the CLI without hardware.
type SimDevice struct {
	Caps  Capabilities
	IDs   [NumChipIDs]ChipID
	Flash []byte

	// OnControl, when set, replaces the built-in request handling.
	OnControl ControlHook

	bus        Bus
	addrStart  uint32
	addrEnd    uint32
	rangeValid bool
	records    []ControlRecord
}

// NewSimDevice creates a simulator with the given flash size and a plausible
// default identity: an LPC/FWH-capable programmer reporting one JEDEC id.
func NewSimDevice(flashSize int) *SimDevice {
	s := &SimDevice{
		Caps: Capabilities{
			BusMaster:     BusLPC | BusFWH,
			MaxDirectData: 64,
		},
		Flash: make([]byte, flashSize),
	}
	s.Caps.Voltages[0] = 33 // 3.3V
	s.IDs[0] = ChipID{Method: IDMethodJEDEC, Vendor: 0xbf, Device: 0x5b}
	return s
}

// Records returns all transfers served so far.
func (s *SimDevice) Records() []ControlRecord {
	return append([]ControlRecord(nil), s.records...)
}

// LastControl returns the most recent transfer, if any.
func (s *SimDevice) LastControl() (ControlRecord, bool) {
	if len(s.records) == 0 {
		return ControlRecord{}, false
	}
	return s.records[len(s.records)-1], true
}

// SelectedBus returns the bus the host last selected.
func (s *SimDevice) SelectedBus() Bus { return s.bus }

// AddressRange returns the window the host last set and whether one was set
// at all.
func (s *SimDevice) AddressRange() (start, end uint32, ok bool) {
	return s.addrStart, s.addrEnd, s.rangeValid
}

// Control implements the control-transfer boundary. The signature matches
// *gousb.Device so the USB driver's encoding runs against the simulator
// unchanged.
func (s *SimDevice) Control(rType, request uint8, val, idx uint16, data []byte) (int, error) {
	s.records = append(s.records, ControlRecord{
		RType:   rType,
		Code:    request,
		Value:   val,
		Index:   idx,
		Payload: append([]byte(nil), data...),
	})

	if s.OnControl != nil {
		return s.OnControl(rType, request, val, idx, data)
	}

	switch request {
	case ReqGetCapabilities:
		return copy(data, MarshalCapabilities(s.Caps)), nil

	case ReqReadDeviceID:
		return copy(data, MarshalChipIDs(s.IDs)), nil

	case ReqSetBus:
		s.bus = Bus(JoinAddr(val, idx))
		return 0, nil

	case ReqSetAddress:
		start, end, err := UnmarshalAddressRange(data)
		if err != nil {
			return 0, err
		}
		s.addrStart, s.addrEnd = start, end
		s.rangeValid = true
		return len(data), nil

	case ReqRead8, ReqRead16, ReqRead32:
		addr := JoinAddr(val, idx)
		if int(addr)+len(data) > len(s.Flash) {
			return 0, fmt.Errorf("sim: read %#08x beyond flash", addr)
		}
		return copy(data, s.Flash[addr:int(addr)+len(data)]), nil

	case ReqWrite8, ReqWrite16, ReqWrite32:
		addr := JoinAddr(val, idx)
		if int(addr)+len(data) > len(s.Flash) {
			return 0, fmt.Errorf("sim: write %#08x beyond flash", addr)
		}
		return copy(s.Flash[addr:], data), nil
	}

	return 0, fmt.Errorf("%w: request %#02x", ErrNotImplemented, request)
}

// simPriv is the transport-private state of one simulated programmer.
type simPriv struct {
	sim  *SimDevice
	open bool
}

// SimDriver exposes simulated programmers through the Driver interface. All
// operations go through the same control-transfer encoding as the USB
// transport, so the protocol path stays identical with and without hardware.
type SimDriver struct {
	devices []*SimDevice
}

// NewSimDriver creates a simulator driver. With no arguments it serves one
// default device.
func NewSimDriver(devices ...*SimDevice) *SimDriver {
	if len(devices) == 0 {
		devices = []*SimDevice{NewSimDevice(1 << 20)}
	}
	return &SimDriver{devices: devices}
}

// Name implements Driver.
func (d *SimDriver) Name() string { return "sim" }

// Scan implements Driver.
func (d *SimDriver) Scan(ctx *Context) ([]*Device, error) {
	devs := make([]*Device, 0, len(d.devices))
	for _, s := range d.devices {
		devs = append(devs, newDevice(d, &simPriv{sim: s}))
	}
	return devs, nil
}

func (d *SimDriver) priv(dev *Device) (*simPriv, error) {
	if dev == nil || dev.priv == nil {
		return nil, ErrInvalidArgument
	}
	p, ok := dev.priv.(*simPriv)
	if !ok {
		return nil, ErrInvalidArgument
	}
	return p, nil
}

func (d *SimDriver) openPriv(dev *Device) (*simPriv, error) {
	p, err := d.priv(dev)
	if err != nil {
		return nil, err
	}
	if !p.open {
		return nil, fmt.Errorf("%w: device not open", ErrInvalidArgument)
	}
	return p, nil
}

// Open implements Driver.
func (d *SimDriver) Open(dev *Device) error {
	p, err := d.priv(dev)
	if err != nil {
		return err
	}
	p.open = true
	return nil
}

// Close implements Driver.
func (d *SimDriver) Close(dev *Device) error {
	p, err := d.priv(dev)
	if err != nil {
		return err
	}
	p.open = false
	return nil
}

// Capabilities implements Driver.
func (d *SimDriver) Capabilities(dev *Device) (Capabilities, error) {
	p, err := d.openPriv(dev)
	if err != nil {
		return Capabilities{}, err
	}
	return controlClient{p.sim}.capabilities()
}

// SetBus implements Driver.
func (d *SimDriver) SetBus(dev *Device, bus Bus) error {
	p, err := d.openPriv(dev)
	if err != nil {
		return err
	}
	return controlClient{p.sim}.setBus(bus)
}

// SetAddress implements Driver.
func (d *SimDriver) SetAddress(dev *Device, start, end uint32) error {
	p, err := d.openPriv(dev)
	if err != nil {
		return err
	}
	return controlClient{p.sim}.setAddress(start, end)
}

// ChipIDs implements Driver.
func (d *SimDriver) ChipIDs(dev *Device) ([NumChipIDs]ChipID, error) {
	p, err := d.openPriv(dev)
	if err != nil {
		return [NumChipIDs]ChipID{}, err
	}
	return controlClient{p.sim}.chipIDs()
}

// Read8 implements Driver.
func (d *SimDriver) Read8(dev *Device, addr uint32) (uint8, error) {
	p, err := d.openPriv(dev)
	if err != nil {
		return 0, err
	}
	return controlClient{p.sim}.read8(addr)
}

// Read16 implements Driver.
func (d *SimDriver) Read16(dev *Device, addr uint32) (uint16, error) {
	p, err := d.openPriv(dev)
	if err != nil {
		return 0, err
	}
	return controlClient{p.sim}.read16(addr)
}

// Read32 implements Driver.
func (d *SimDriver) Read32(dev *Device, addr uint32) (uint32, error) {
	p, err := d.openPriv(dev)
	if err != nil {
		return 0, err
	}
	return controlClient{p.sim}.read32(addr)
}

// Write8 implements Driver.
func (d *SimDriver) Write8(dev *Device, addr uint32, data uint8) error {
	p, err := d.openPriv(dev)
	if err != nil {
		return err
	}
	return controlClient{p.sim}.write8(addr, data)
}

// Write16 implements Driver.
func (d *SimDriver) Write16(dev *Device, addr uint32, data uint16) error {
	p, err := d.openPriv(dev)
	if err != nil {
		return err
	}
	return controlClient{p.sim}.write16(addr, data)
}

// Write32 implements Driver.
func (d *SimDriver) Write32(dev *Device, addr uint32, data uint32) error {
	p, err := d.openPriv(dev)
	if err != nil {
		return err
	}
	return controlClient{p.sim}.write32(addr, data)
}
