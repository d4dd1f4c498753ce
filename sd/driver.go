package sd

import (
	"fmt"
	"time"

	"github.com/ktstephano/bcm283x-kernel/kernelerr"
	"github.com/ktstephano/bcm283x-kernel/platform"
)

// Logger is the minimal sink Driver writes its initialization trail to,
// supplementing the original sd_init()'s verbose uart_puts diagnostics.
type Logger interface {
	Logf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Logf(string, ...any) {}

// initRetries bounds the ACMD41 busy-poll the original gave 100 attempts
// and a 50ms spacing to.
const (
	initRetries   = 100
	initRetryWait = 50 * time.Millisecond
)

const (
	ocrHighCapacity = 1 << 30
	ocrBusy         = 1 << 31
	sdIfCondPattern = 0x1AA
)

// Driver is the EMMC-style SD host controller driver: the full card
// initialization sequence and PIO block transfers. It does not check
// for card presence. It implements block.Device.
type Driver struct {
	bus   platform.Bus
	gpio  platform.Bus // optional; nil boards skip pinmux
	mbox  *platform.Mailbox
	clock platform.Clock
	log   Logger

	cmdTimeout time.Duration
	dataTimeout time.Duration

	rca          uint32
	highCapacity bool
	sectorCount  uint64
}

// Config collects the dependencies a Driver needs at construction. GPIO
// is optional: boards whose bootloader has already configured the EMMC
// pin alternate functions may leave it nil.
type Config struct {
	Bus   platform.Bus
	GPIO  platform.Bus
	Mbox  *platform.Mailbox
	Clock platform.Clock
	Log   Logger
}

// NewDriver returns a Driver that has not yet been initialized; callers
// must call Init before using it as a block.Device.
func NewDriver(cfg Config) *Driver {
	log := cfg.Log
	if log == nil {
		log = nopLogger{}
	}
	return &Driver{
		bus:         cfg.Bus,
		gpio:        cfg.GPIO,
		mbox:        cfg.Mbox,
		clock:       cfg.Clock,
		log:         log,
		cmdTimeout:  time.Second,
		dataTimeout: 2 * time.Second,
	}
}

// Name implements block.Device.
func (d *Driver) Name() string { return "sd0" }

// SectorSize implements block.Device; this controller only ever moves
// 512-byte sectors through its FIFO.
func (d *Driver) SectorSize() int { return 512 }

// SectorCount implements block.Device.
func (d *Driver) SectorCount() uint64 { return d.sectorCount }

// Init runs the full card bring-up sequence: mailbox power-on,
// controller reset, the ACMD41 busy-poll, identification, and the
// switch to a 4-bit bus at full clock speed.
func (d *Driver) Init() error {
	d.log.Logf("sd: powering on")
	if d.mbox != nil && !d.mbox.SetPowerState(platform.DeviceSD, true) {
		return fmt.Errorf("sd: power-on: %w", kernelerr.ErrDeviceError)
	}

	d.pinmux()

	d.log.Logf("sd: resetting controller")
	if err := d.resetController(); err != nil {
		return err
	}

	d.log.Logf("sd: clocking at 400kHz for identification")
	if err := d.setClock(400_000); err != nil {
		return err
	}

	if _, err := d.issue(cmdGoIdle, 0); err != nil {
		return fmt.Errorf("sd: CMD0: %w", err)
	}

	d.highCapacity = false
	if resp, err := d.issue(cmdSendIfCond, sdIfCondPattern); err == nil && resp[0]&0xFFF == sdIfCondPattern {
		d.highCapacity = true
	}

	ocr, err := d.initCard()
	if err != nil {
		return err
	}
	if d.highCapacity {
		d.highCapacity = ocr&ocrHighCapacity != 0
	}

	if _, err := d.issue(cmdAllSendCID, 0); err != nil {
		return fmt.Errorf("sd: CMD2: %w", err)
	}

	resp, err := d.issue(cmdSendRelAddr, 0)
	if err != nil {
		return fmt.Errorf("sd: CMD3: %w", err)
	}
	d.rca = resp[0] & 0xFFFF0000

	resp, err = d.issue(cmdSendCSD, d.rca)
	if err != nil {
		return fmt.Errorf("sd: CMD9: %w", err)
	}
	c := parseCSD(resp)
	d.sectorCount = c.sectorCount

	if _, err := d.issue(cmdSelectCard, d.rca); err != nil {
		return fmt.Errorf("sd: CMD7: %w", err)
	}

	if err := d.setBusWidth4(); err != nil {
		return err
	}

	if !d.highCapacity {
		if _, err := d.issue(cmdSetBlockLen, 512); err != nil {
			return fmt.Errorf("sd: CMD16: %w", err)
		}
	}

	d.log.Logf("sd: clocking at 25MHz")
	if err := d.setClock(25_000_000); err != nil {
		return err
	}

	d.log.Logf("sd: ready, %d sectors, high-capacity=%v", d.sectorCount, d.highCapacity)
	return nil
}

// initCard runs the CMD55/ACMD41 busy-poll until the card reports it has
// left the busy state (OCR bit 31 set) or the retry budget is spent.
func (d *Driver) initCard() (uint32, error) {
	hcs := uint32(0)
	if d.highCapacity {
		hcs = ocrHighCapacity
	}

	for attempt := 0; attempt < initRetries; attempt++ {
		if _, err := d.issue(cmdAppCmd, d.rca); err != nil {
			return 0, fmt.Errorf("sd: CMD55: %w", err)
		}
		resp, err := d.issue(cmdSDSendOpCond, 0x00FF8000|hcs)
		if err != nil {
			return 0, fmt.Errorf("sd: ACMD41: %w", err)
		}
		if resp[0]&ocrBusy != 0 {
			return resp[0], nil
		}
		if d.clock != nil {
			d.clock.DelayMicros(uint32(initRetryWait.Microseconds()))
		}
	}
	return 0, fmt.Errorf("sd: card did not leave busy state: %w", kernelerr.ErrTimeout)
}

func (d *Driver) setBusWidth4() error {
	if _, err := d.issue(cmdAppCmd, d.rca); err != nil {
		return fmt.Errorf("sd: CMD55: %w", err)
	}
	if _, err := d.issue(cmdSetBusWidth, 2); err != nil {
		return fmt.Errorf("sd: ACMD6: %w", err)
	}
	platform.Set(d.bus, regControl0, control0HCTLDWidth4)
	return nil
}

func (d *Driver) resetController() error {
	platform.Set(d.bus, regControl1, control1SRSTHC)
	if !platform.WaitFor(d.bus, regControl1, 24, 1, 0, d.cmdTimeout) {
		return fmt.Errorf("sd: controller reset: %w", kernelerr.ErrTimeout)
	}
	return nil
}

// setClock computes a divider from the EMMC base clock (read from the
// firmware mailbox) and programs CONTROL1, waiting for the clock to
// report stable.
func (d *Driver) setClock(targetHz uint32) error {
	platform.Clear(d.bus, regControl1, control1ClkEn)

	base := uint32(50_000_000)
	if d.mbox != nil {
		if rate := d.mbox.GetClockRate(platform.ClockEMMC); rate != 0 {
			base = rate
		}
	}

	div := base / targetHz / 2
	if div == 0 {
		div = 1
	}

	cur := d.bus.Read32(regControl1)
	cur &^= 0xFFE0
	cur |= (div & 0xFF) << 8
	cur |= ((div >> 8) & 0x3) << 6
	cur |= control1ClkIntLen
	d.bus.Write32(regControl1, cur)

	if !platform.WaitFor(d.bus, regControl1, 1, 1, 1, d.cmdTimeout) {
		return fmt.Errorf("sd: clock did not stabilize: %w", kernelerr.ErrTimeout)
	}
	platform.Set(d.bus, regControl1, control1ClkEn)
	return nil
}

// pinmux configures the EMMC pin alternate functions when a GPIO bus was
// supplied. The bit layout is board-specific GPFSEL/GPPUD wiring outside
// this driver's own register block, so it is only attempted when a
// caller opted in by supplying one.
func (d *Driver) pinmux() {
	if d.gpio == nil {
		return
	}
	const altFunc3 = 7
	for pin := uint(48); pin <= 53; pin++ {
		regOffset := uint32((pin / 10) * 4)
		shift := (pin % 10) * 3
		platform.SetN(d.gpio, regOffset, shift, 0x7, altFunc3)
	}
}
