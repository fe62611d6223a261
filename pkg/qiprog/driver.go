// Package qiprog is a host-side implementation of the QiProg protocol for
// external flash-chip programmers. It provides device discovery, capability
// queries, bus and address-window selection, and width-exact reads and writes
// against chip memory, with a USB control-transfer transport and an in-memory
// simulator.
package qiprog

// Bus selects which physical chip-access bus the programmer drives. Values
// are a bitmask so capability reports can advertise several at once. Zero
// means unset and is never a valid selector.
type Bus uint32

const (
	BusISA Bus = 1 << iota
	BusLPC
	BusFWH
	BusSPI
)

// String returns the conventional short name for a single-bus selector.
func (b Bus) String() string {
	switch b {
	case BusISA:
		return "isa"
	case BusLPC:
		return "lpc"
	case BusFWH:
		return "fwh"
	case BusSPI:
		return "spi"
	}
	return "unknown"
}

// InstructionSet identifies the command set a programmer speaks to the chip.
type InstructionSet uint16

// NumVoltages is the number of supply-voltage slots in a capability report.
// Unused slots are zero.
const NumVoltages = 10

// Capabilities describes what a programmer supports. Voltages are in tenths
// of a volt. The struct is immutable once read from the device.
type Capabilities struct {
	InstructionSet InstructionSet
	BusMaster      Bus // bitmask of supported buses
	MaxDirectData  uint32
	Voltages       [NumVoltages]uint16
}

// IDMethod tags how a chip identification was obtained.
type IDMethod uint8

const (
	// IDMethodNone marks an unused chip-id slot.
	IDMethodNone IDMethod = iota
	IDMethodJEDEC
)

// NumChipIDs is the fixed number of identification slots a device reports.
// A chip may expose several identification schemes; all slots come back in a
// single exchange, unused ones tagged IDMethodNone.
const NumChipIDs = 9

// ChipID is one chip identification result.
type ChipID struct {
	Method IDMethod
	Vendor uint16
	Device uint32
}

// Driver is the operation table every QiProg transport implements. Drivers
// hold no per-device state; all mutable state lives in the Device a scan
// produces. Operations are synchronous and perform no internal retries.
type Driver interface {
	// Name identifies the transport for logs and listings.
	Name() string

	// Scan probes for physically present matching hardware. Finding zero
	// devices is success, not an error.
	Scan(ctx *Context) ([]*Device, error)

	// Open acquires exclusive transport-level ownership of the device.
	Open(dev *Device) error

	// Close releases the transport resources Open acquired.
	Close(dev *Device) error

	Capabilities(dev *Device) (Capabilities, error)
	SetBus(dev *Device, bus Bus) error
	SetAddress(dev *Device, start, end uint32) error
	ChipIDs(dev *Device) ([NumChipIDs]ChipID, error)

	Read8(dev *Device, addr uint32) (uint8, error)
	Read16(dev *Device, addr uint32) (uint16, error)
	Read32(dev *Device, addr uint32) (uint32, error)
	Write8(dev *Device, addr uint32, data uint8) error
	Write16(dev *Device, addr uint32, data uint16) error
	Write32(dev *Device, addr uint32, data uint32) error
}

// Device is an opaque handle to one discovered programmer. The driver
// reference never changes after creation; the private state is owned
// exclusively by the device and must not be touched before Open succeeds.
//
// A device supports at most one open handle and no internal locking. Callers
// sharing one handle across goroutines must serialize externally.
type Device struct {
	drv  Driver
	priv any
}

func newDevice(drv Driver, priv any) *Device {
	return &Device{drv: drv, priv: priv}
}

// Driver returns the transport this device dispatches through.
func (d *Device) Driver() Driver {
	if d == nil {
		return nil
	}
	return d.drv
}

// check rejects calls before they can reach the transport.
func (d *Device) check() error {
	if d == nil || d.drv == nil || d.priv == nil {
		return ErrInvalidArgument
	}
	return nil
}

// Open acquires the underlying transport handle.
func (d *Device) Open() error {
	if err := d.check(); err != nil {
		return err
	}
	return d.drv.Open(d)
}

// Close releases transport resources. Callers must Close a device before
// discarding it.
func (d *Device) Close() error {
	if err := d.check(); err != nil {
		return err
	}
	return d.drv.Close(d)
}

// Capabilities fetches the device capability report.
func (d *Device) Capabilities() (Capabilities, error) {
	if err := d.check(); err != nil {
		return Capabilities{}, err
	}
	return d.drv.Capabilities(d)
}

// SetBus selects the chip-access bus for subsequent operations. A zero
// selector is an argument error.
func (d *Device) SetBus(bus Bus) error {
	if err := d.check(); err != nil {
		return err
	}
	return d.drv.SetBus(d, bus)
}

// SetAddress sets the addressable window for subsequent reads and writes.
// There is no implicit default window.
func (d *Device) SetAddress(start, end uint32) error {
	if err := d.check(); err != nil {
		return err
	}
	return d.drv.SetAddress(d, start, end)
}

// ChipIDs reads all identification slots in one exchange.
func (d *Device) ChipIDs() ([NumChipIDs]ChipID, error) {
	if err := d.check(); err != nil {
		return [NumChipIDs]ChipID{}, err
	}
	return d.drv.ChipIDs(d)
}

// Read8 reads one byte from chip memory.
func (d *Device) Read8(addr uint32) (uint8, error) {
	if err := d.check(); err != nil {
		return 0, err
	}
	return d.drv.Read8(d, addr)
}

// Read16 reads one 16-bit word from chip memory.
func (d *Device) Read16(addr uint32) (uint16, error) {
	if err := d.check(); err != nil {
		return 0, err
	}
	return d.drv.Read16(d, addr)
}

// Read32 reads one 32-bit word from chip memory.
func (d *Device) Read32(addr uint32) (uint32, error) {
	if err := d.check(); err != nil {
		return 0, err
	}
	return d.drv.Read32(d, addr)
}

// Write8 writes one byte to chip memory.
func (d *Device) Write8(addr uint32, data uint8) error {
	if err := d.check(); err != nil {
		return err
	}
	return d.drv.Write8(d, addr, data)
}

// Write16 writes one 16-bit word to chip memory.
func (d *Device) Write16(addr uint32, data uint16) error {
	if err := d.check(); err != nil {
		return err
	}
	return d.drv.Write16(d, addr, data)
}

// Write32 writes one 32-bit word to chip memory.
func (d *Device) Write32(addr uint32, data uint32) error {
	if err := d.check(); err != nil {
		return err
	}
	return d.drv.Write32(d, addr, data)
}
