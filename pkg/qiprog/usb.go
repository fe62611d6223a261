package qiprog

import (
	"fmt"
	"time"

	"github.com/google/gousb"
)

// USB identity of a QiProg programmer. Scan accepts a device only on an
// exact match of both values.
const (
	VendorIDOpenMoko     = 0x1d50
	ProductIDVultureProg = 0x6076
)

// transferTimeout applies to every control transfer. There is no mechanism
// to shorten it mid-call.
const transferTimeout = 3000 * time.Millisecond

// USBDriver drives QiProg programmers over USB control transfers. The driver
// itself is stateless; per-device transport state lives in the devices its
// Scan produces.
type USBDriver struct{}

// usbPriv is the transport-private state of one USB programmer. The
// descriptor is captured at scan time; the handle and interface claim are
// acquired lazily on Open and released by Close.
type usbPriv struct {
	usb  *gousb.Context
	desc *gousb.DeviceDesc

	dev  *gousb.Device
	cfg  *gousb.Config
	intf *gousb.Interface
	bus  controlBus
}

// NewUSBDriver returns the USB transport driver.
func NewUSBDriver() *USBDriver {
	return &USBDriver{}
}

// Name implements Driver.
func (d *USBDriver) Name() string { return "usb" }

// isProgrammer reports whether a descriptor identifies a QiProg programmer.
func isProgrammer(desc *gousb.DeviceDesc) bool {
	return desc.Vendor == gousb.ID(VendorIDOpenMoko) &&
		desc.Product == gousb.ID(ProductIDVultureProg)
}

// Scan implements Driver. It enumerates descriptors without opening any
// device; matches are wrapped eagerly, handles come later in Open. Failure
// to enumerate means zero devices found, not an error.
func (d *USBDriver) Scan(ctx *Context) ([]*Device, error) {
	usb := ctx.usbContext()
	if usb == nil {
		return nil, nil
	}

	var devs []*Device
	_, err := usb.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		if isProgrammer(desc) {
			devs = append(devs, newDevice(d, &usbPriv{usb: usb, desc: desc}))
		}
		return false
	})
	if err != nil && err != gousb.ErrorAccess {
		logWarn("could not enumerate usb devices", "err", err)
	}

	logDebug("usb scan complete", "found", len(devs))
	return devs, nil
}

// priv type-checks a device's private state. open additionally requires the
// transport handle to exist.
func (d *USBDriver) priv(dev *Device) (*usbPriv, error) {
	if dev == nil || dev.priv == nil {
		return nil, ErrInvalidArgument
	}
	p, ok := dev.priv.(*usbPriv)
	if !ok {
		return nil, ErrInvalidArgument
	}
	return p, nil
}

func (d *USBDriver) open(dev *Device) (*usbPriv, error) {
	p, err := d.priv(dev)
	if err != nil {
		return nil, err
	}
	if p.bus == nil {
		return nil, fmt.Errorf("%w: device not open", ErrInvalidArgument)
	}
	return p, nil
}

// Open implements Driver. It reacquires the scanned device by its bus
// position and claims the single vendor interface. The claim is exclusive;
// a second open of the same physical device fails.
func (d *USBDriver) Open(dev *Device) error {
	p, err := d.priv(dev)
	if err != nil {
		return err
	}
	if p.bus != nil {
		return fmt.Errorf("%w: device already open", ErrInvalidArgument)
	}
	if p.usb == nil || p.desc == nil {
		return ErrInvalidArgument
	}

	handles, err := p.usb.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Bus == p.desc.Bus && desc.Address == p.desc.Address &&
			isProgrammer(desc)
	})
	if err != nil && len(handles) == 0 {
		return fmt.Errorf("%w: open: %v", ErrTransfer, err)
	}
	if len(handles) == 0 {
		return fmt.Errorf("%w: device no longer present", ErrTransfer)
	}
	handle := handles[0]
	for _, extra := range handles[1:] {
		extra.Close()
	}

	handle.ControlTimeout = transferTimeout
	// Best effort; not supported on all platforms.
	_ = handle.SetAutoDetach(true)

	cfg, err := handle.Config(1)
	if err != nil {
		handle.Close()
		return fmt.Errorf("%w: select config: %v", ErrTransfer, err)
	}
	intf, err := cfg.Interface(0, 0)
	if err != nil {
		cfg.Close()
		handle.Close()
		return fmt.Errorf("%w: claim interface: %v", ErrTransfer, err)
	}

	p.dev = handle
	p.cfg = cfg
	p.intf = intf
	p.bus = handle

	logInfo("opened programmer", "vid", fmt.Sprintf("%04x", uint16(p.desc.Vendor)),
		"pid", fmt.Sprintf("%04x", uint16(p.desc.Product)))
	return nil
}

// Close implements Driver. The interface claim goes first, then the handle;
// the device stays valid for a later reopen.
func (d *USBDriver) Close(dev *Device) error {
	p, err := d.priv(dev)
	if err != nil {
		return err
	}
	if p.intf != nil {
		p.intf.Close()
		p.intf = nil
	}
	if p.cfg != nil {
		if err := p.cfg.Close(); err != nil {
			logWarn("could not release config", "err", err)
		}
		p.cfg = nil
	}
	if p.dev != nil {
		if err := p.dev.Close(); err != nil {
			logWarn("could not close device", "err", err)
		}
		p.dev = nil
	}
	p.bus = nil
	return nil
}

// Capabilities implements Driver.
func (d *USBDriver) Capabilities(dev *Device) (Capabilities, error) {
	p, err := d.open(dev)
	if err != nil {
		return Capabilities{}, err
	}
	return controlClient{p.bus}.capabilities()
}

// SetBus implements Driver.
func (d *USBDriver) SetBus(dev *Device, bus Bus) error {
	p, err := d.open(dev)
	if err != nil {
		return err
	}
	return controlClient{p.bus}.setBus(bus)
}

// SetAddress implements Driver.
func (d *USBDriver) SetAddress(dev *Device, start, end uint32) error {
	p, err := d.open(dev)
	if err != nil {
		return err
	}
	return controlClient{p.bus}.setAddress(start, end)
}

// ChipIDs implements Driver.
func (d *USBDriver) ChipIDs(dev *Device) ([NumChipIDs]ChipID, error) {
	p, err := d.open(dev)
	if err != nil {
		return [NumChipIDs]ChipID{}, err
	}
	return controlClient{p.bus}.chipIDs()
}

// Read8 implements Driver.
func (d *USBDriver) Read8(dev *Device, addr uint32) (uint8, error) {
	p, err := d.open(dev)
	if err != nil {
		return 0, err
	}
	return controlClient{p.bus}.read8(addr)
}

// Read16 implements Driver.
func (d *USBDriver) Read16(dev *Device, addr uint32) (uint16, error) {
	p, err := d.open(dev)
	if err != nil {
		return 0, err
	}
	return controlClient{p.bus}.read16(addr)
}

// Read32 implements Driver.
func (d *USBDriver) Read32(dev *Device, addr uint32) (uint32, error) {
	p, err := d.open(dev)
	if err != nil {
		return 0, err
	}
	return controlClient{p.bus}.read32(addr)
}

// Write8 implements Driver.
func (d *USBDriver) Write8(dev *Device, addr uint32, data uint8) error {
	p, err := d.open(dev)
	if err != nil {
		return err
	}
	return controlClient{p.bus}.write8(addr, data)
}

// Write16 implements Driver.
func (d *USBDriver) Write16(dev *Device, addr uint32, data uint16) error {
	p, err := d.open(dev)
	if err != nil {
		return err
	}
	return controlClient{p.bus}.write16(addr, data)
}

// Write32 implements Driver.
func (d *USBDriver) Write32(dev *Device, addr uint32, data uint32) error {
	p, err := d.open(dev)
	if err != nil {
		return err
	}
	return controlClient{p.bus}.write32(addr, data)
}
