package adc

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/itohio/dietemp/pkg/calib"
	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the baud rate the firmware listens at.
	DefaultBaudRate = 115200
	// DefaultTimeout bounds a single request/reply exchange.
	DefaultTimeout = time.Second

	pollTimeout = 50 * time.Millisecond
)

// Serial talks to the firmware over a serial port.
type Serial struct {
	port     string
	baudRate int
	timeout  time.Duration

	mu        sync.Mutex // one outstanding request on the link
	conn      serial.Port
	cl        *client
	connected bool
}

// NewSerial creates a Serial device for the given port.
func NewSerial(port string, baudRate int, timeout time.Duration) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Serial{
		port:     port,
		baudRate: baudRate,
		timeout:  timeout,
	}
}

// Ports returns the names of the available serial ports.
func Ports() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}

// Connect opens the serial port.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}

	port, err := serial.Open(d.port, &serial.Mode{BaudRate: d.baudRate})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}
	if err := port.SetReadTimeout(pollTimeout); err != nil {
		port.Close()
		return fmt.Errorf("failed to set read timeout on %s: %w", d.port, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		log.Printf("Failed to flush input of %s: %v", d.port, err)
	}

	d.conn = port
	d.cl = newClient(port, d.timeout)
	d.connected = true

	return nil
}

// Close closes the serial port.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	d.connected = false
	d.cl = nil
	if err := d.conn.Close(); err != nil {
		return fmt.Errorf("failed to close serial port %s: %w", d.port, err)
	}
	d.conn = nil

	return nil
}

// IsConnected returns whether the port is open.
func (d *Serial) IsConnected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connected
}

// Read requests one conversion on ch from the firmware.
func (d *Serial) Read(ctx context.Context, ch Channel) (calib.RawCode, error) {
	req, err := readRequest(ch)
	if err != nil {
		return 0, err
	}
	v, err := d.do(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", ch, err)
	}
	return calib.RawCode(v), nil
}

// ReadConstant requests a factory calibration constant from the firmware.
func (d *Serial) ReadConstant(id calib.ID) (uint16, error) {
	v, err := d.do(context.Background(), constantRequest(id))
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", id, err)
	}
	return v, nil
}

func (d *Serial) do(ctx context.Context, req string) (uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return 0, fmt.Errorf("not connected")
	}
	// Anything buffered now answers nobody.
	d.flush()
	v, err := d.cl.transact(ctx, req)
	if err != nil {
		d.flush()
	}
	return v, err
}

func (d *Serial) flush() {
	if err := d.conn.ResetInputBuffer(); err != nil {
		log.Printf("Failed to flush input of %s: %v", d.port, err)
	}
}
