//go:build !linux

package gpio

import "errors"

// RealDriver is not available on non-Linux platforms.
type RealDriver struct{}

// NewRealDriver returns an error on non-Linux platforms.
func NewRealDriver(opts Options) (*RealDriver, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// SetLevels is not implemented on non-Linux platforms.
func (r *RealDriver) SetLevels(red, green, blue uint16) error {
	return errors.New("gpio: not supported")
}

// SetOn is not implemented on non-Linux platforms.
func (r *RealDriver) SetOn(on bool) error {
	return errors.New("gpio: not supported")
}

// SetClockDivider is not implemented on non-Linux platforms.
func (r *RealDriver) SetClockDivider(div float64) error {
	return errors.New("gpio: not supported")
}

// SetTone is not implemented on non-Linux platforms.
func (r *RealDriver) SetTone(wrap, level uint32) error {
	return errors.New("gpio: not supported")
}

// SetEnabled is not implemented on non-Linux platforms.
func (r *RealDriver) SetEnabled(on bool) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RealDriver) Close() error {
	return nil
}
