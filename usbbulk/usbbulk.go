/*Package usbbulk owns the USB plumbing for the Turing Smart Screen: one
device matched by vendor/product ID, interface 0, and the first bulk OUT
and bulk IN endpoints on it.

The only operation is Transact: one bulk write, one timed read for the
reply, then a drain of the IN endpoint until it runs dry or five drain
reads have been made.  The screen
firmware leaves stale data queued on IN after some commands and chokes
on the next command if it is not flushed.

All transactions are strictly serial within a process; callers that
share a Device across goroutines must synchronize externally.
*/
package usbbulk

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"sort"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/gousb"
)

// The screen's USB identity.
const (
	VendorID  = 0x1CBE
	ProductID = 0x0088
)

const (
	// replyLen is the largest reply the device sends
	replyLen = 512

	// transactTimeout covers the write and the primary read
	transactTimeout = 2 * time.Second

	// drainTimeout and drainAttempts bound the post-read flush
	drainTimeout  = 100 * time.Millisecond
	drainAttempts = 5
)

// ErrDeviceNotFound is generated when no screen is attached.
var ErrDeviceNotFound = fmt.Errorf("usbbulk: no device with VID %#04x PID %#04x", VendorID, ProductID)

// Device is an open handle to the screen with its endpoints claimed.
type Device struct {
	ctx  *gousb.Context
	dev  *gousb.Device
	cfg  *gousb.Config
	intf *gousb.Interface
	out  *gousb.OutEndpoint
	in   *gousb.InEndpoint
}

/*Open locates the screen and claims its bulk endpoints.

A device that was just plugged in can take a moment to enumerate, so the
lookup retries on a short exponential schedule before giving up with
ErrDeviceNotFound.  Any other failure is permanent and returned at once.
*/
func Open() (*Device, error) {
	var d *Device
	op := func() error {
		var err error
		d, err = open()
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrDeviceNotFound) {
			return err // retryable, may still be enumerating
		}
		return backoff.Permanent(err)
	}
	err := backoff.Retry(op, &backoff.ExponentialBackOff{
		InitialInterval:     25 * time.Millisecond,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         time.Second,
		MaxElapsedTime:      3 * time.Second,
		Clock:               backoff.SystemClock,
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func open() (*Device, error) {
	ctx := gousb.NewContext()
	dev, err := ctx.OpenDeviceWithVIDPID(VendorID, ProductID)
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("usbbulk: opening device: %w", err)
	}
	if dev == nil {
		ctx.Close()
		return nil, ErrDeviceNotFound
	}

	if runtime.GOOS != "windows" {
		// hand interface 0 back from whatever kernel driver claimed it
		if err := dev.SetAutoDetach(true); err != nil {
			log.Printf("warning: could not enable kernel driver detach: %v", err)
		}
	}

	cfg, err := dev.Config(1)
	if err != nil {
		// some hosts report spurious errors configuring an
		// already-configured device; fall back to the active config
		log.Printf("warning: set_configuration failed: %v", err)
		num, aerr := dev.ActiveConfigNum()
		if aerr != nil {
			dev.Close()
			ctx.Close()
			return nil, fmt.Errorf("usbbulk: no usable configuration: %w", err)
		}
		cfg, err = dev.Config(num)
		if err != nil {
			dev.Close()
			ctx.Close()
			return nil, fmt.Errorf("usbbulk: claiming active configuration: %w", err)
		}
	}

	intf, err := cfg.Interface(0, 0)
	if err != nil {
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("usbbulk: claiming interface 0: %w", err)
	}

	d := &Device{ctx: ctx, dev: dev, cfg: cfg, intf: intf}
	if err := d.findEndpoints(); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// findEndpoints picks the first OUT and first IN endpoint on the claimed
// interface, in ascending endpoint address order.
func (d *Device) findEndpoints() error {
	descs := make([]gousb.EndpointDesc, 0, len(d.intf.Setting.Endpoints))
	for _, ed := range d.intf.Setting.Endpoints {
		descs = append(descs, ed)
	}
	sort.Slice(descs, func(i, j int) bool { return descs[i].Address < descs[j].Address })
	for _, ed := range descs {
		var err error
		switch {
		case ed.Direction == gousb.EndpointDirectionOut && d.out == nil:
			d.out, err = d.intf.OutEndpoint(ed.Number)
		case ed.Direction == gousb.EndpointDirectionIn && d.in == nil:
			d.in, err = d.intf.InEndpoint(ed.Number)
		}
		if err != nil {
			return fmt.Errorf("usbbulk: opening endpoint %d: %w", ed.Number, err)
		}
	}
	if d.out == nil || d.in == nil {
		return errors.New("usbbulk: interface 0 lacks a bulk IN/OUT endpoint pair")
	}
	return nil
}

/*Transact performs one write-then-read exchange.

The transfer is bulk-written to the OUT endpoint, one reply of up to 512
bytes is read from IN, and IN is then drained until it times out (at
most five drain reads) so no residual data poisons the next exchange.  Write and read failures are
logged and returned; drain failures are expected and swallowed.
*/
func (d *Device) Transact(data []byte) ([]byte, error) {
	wctx, cancel := context.WithTimeout(context.Background(), transactTimeout)
	_, err := d.out.WriteContext(wctx, data)
	cancel()
	if err != nil {
		log.Printf("usb write error: %v", err)
		return nil, err
	}

	buf := make([]byte, replyLen)
	rctx, cancel := context.WithTimeout(context.Background(), transactTimeout)
	n, err := d.in.ReadContext(rctx, buf)
	cancel()
	if err != nil {
		log.Printf("usb read error: %v", err)
		return nil, err
	}
	d.drain()
	return buf[:n], nil
}

// drain reads the IN endpoint until it goes idle, making at most
// drainAttempts reads.  The first timeout
// (libusb ETIMEDOUT, errno 110) is the idle signal; any other error
// also stops the loop and is deliberately not reported.
func (d *Device) drain() {
	buf := make([]byte, replyLen)
	for i := 0; i < drainAttempts; i++ {
		rctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		_, err := d.in.ReadContext(rctx, buf)
		cancel()
		if err != nil {
			return
		}
	}
}

// Close releases the endpoints, interface, configuration and handle.
func (d *Device) Close() error {
	if d.intf != nil {
		d.intf.Close()
	}
	if d.cfg != nil {
		d.cfg.Close()
	}
	var err error
	if d.dev != nil {
		err = d.dev.Close()
	}
	if d.ctx != nil {
		if cerr := d.ctx.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
