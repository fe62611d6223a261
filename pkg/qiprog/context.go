package qiprog

import (
	"fmt"

	"github.com/google/gousb"
)

// Context owns the process-wide USB session and the driver registry. The
// registry is explicit so tests can substitute a fake transport; there is no
// hidden package-level driver list. Create one Context per process, list and
// open devices through it, close all devices, then Close the context.
type Context struct {
	usb     *gousb.Context
	drivers []Driver
	closed  bool
}

// New creates a context with a live USB session and the USB transport driver
// registered.
func New() *Context {
	return &Context{
		usb:     gousb.NewContext(),
		drivers: []Driver{NewUSBDriver()},
	}
}

// NewWithDrivers creates a context with an explicit driver list and no USB
// session. Drivers that need USB find none and scan to zero devices.
func NewWithDrivers(drivers ...Driver) *Context {
	return &Context{drivers: drivers}
}

// Register adds a driver to the registry. Registering after devices have
// been listed only affects later scans.
func (c *Context) Register(drv Driver) {
	c.drivers = append(c.drivers, drv)
}

// Drivers returns the registered drivers in registration order.
func (c *Context) Drivers() []Driver {
	return append([]Driver(nil), c.drivers...)
}

func (c *Context) usbContext() *gousb.Context {
	if c == nil || c.closed {
		return nil
	}
	return c.usb
}

// ListDevices scans every registered driver and returns the flat list of
// discovered programmers. Zero devices is success. A driver scan failure
// aborts the remainder of the pass.
func (c *Context) ListDevices() ([]*Device, error) {
	if c == nil || c.closed {
		return nil, ErrInvalidArgument
	}

	var devs []*Device
	for _, drv := range c.drivers {
		found, err := drv.Scan(c)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", drv.Name(), err)
		}
		devs = append(devs, found...)
	}
	return devs, nil
}

// Close tears down the USB session. All devices must be closed first; their
// handles dangle otherwise. Closing twice is a no-op.
func (c *Context) Close() error {
	if c == nil || c.closed {
		return nil
	}
	c.closed = true
	if c.usb != nil {
		if err := c.usb.Close(); err != nil {
			return fmt.Errorf("qiprog: close usb session: %w", err)
		}
	}
	return nil
}
