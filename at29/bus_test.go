package at29

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/breadboardlabs/go-at29/hal"
)

// event is one recorded hardware interaction.
type event struct {
	kind  string // "out", "in" or "sleep"
	pin   string
	level gpio.Level
	d     time.Duration
}

// recorder captures every pin transition and every delay in order, so
// tests can assert signal ordering and minimum durations without real
// hardware or real time.
type recorder struct {
	events []event
	pins   map[string]*recPin
}

func newRecorder() *recorder {
	return &recorder{pins: make(map[string]*recPin)}
}

func (r *recorder) pin(name string) *recPin {
	p := &recPin{rec: r, name: name}
	r.pins[name] = p
	return p
}

func (r *recorder) port(t *testing.T, prefix string) *hal.Port {
	t.Helper()
	pins := make([]hal.Pin, 8)
	for i := range pins {
		pins[i] = r.pin(fmt.Sprintf("%s%d", prefix, i))
	}
	port, err := hal.NewPort(pins...)
	if err != nil {
		t.Fatalf("NewPort(%s): %v", prefix, err)
	}
	return port
}

func (r *recorder) sleep(d time.Duration) {
	r.events = append(r.events, event{kind: "sleep", d: d})
}

func (r *recorder) reset() {
	r.events = nil
}

// index returns the position of the first matching event, or -1.
func (r *recorder) index(kind, pin string) int {
	for i, e := range r.events {
		if e.kind == kind && e.pin == pin {
			return i
		}
	}
	return -1
}

// indexLevel is index restricted to "out" events at a given level.
func (r *recorder) indexLevel(pin string, level gpio.Level) int {
	for i, e := range r.events {
		if e.kind == "out" && e.pin == pin && e.level == level {
			return i
		}
	}
	return -1
}

// lastIndex returns the position of the last matching event, or -1.
func (r *recorder) lastIndex(kind, pin string) int {
	for i := len(r.events) - 1; i >= 0; i-- {
		e := r.events[i]
		if e.kind == kind && e.pin == pin {
			return i
		}
	}
	return -1
}

// sleepAtLeast returns the position of the first sleep of at least d,
// or -1.
func (r *recorder) sleepAtLeast(d time.Duration) int {
	for i, e := range r.events {
		if e.kind == "sleep" && e.d >= d {
			return i
		}
	}
	return -1
}

func (r *recorder) sleeps() []time.Duration {
	var out []time.Duration
	for _, e := range r.events {
		if e.kind == "sleep" {
			out = append(out, e.d)
		}
	}
	return out
}

type recPin struct {
	rec       *recorder
	name      string
	level     gpio.Level
	input     bool
	failAfter int // fail the Nth and all later Out calls when > 0
	outCalls  int
}

func (p *recPin) In(pull gpio.Pull, edge gpio.Edge) error {
	p.input = true
	p.rec.events = append(p.rec.events, event{kind: "in", pin: p.name})
	return nil
}

func (p *recPin) Out(l gpio.Level) error {
	p.outCalls++
	if p.failAfter > 0 && p.outCalls >= p.failAfter {
		return errors.New("simulated pin fault")
	}
	p.input = false
	p.level = l
	p.rec.events = append(p.rec.events, event{kind: "out", pin: p.name, level: l})
	return nil
}

func (p *recPin) Read() gpio.Level {
	return p.level
}

func newRecorderBus(t *testing.T) (*Bus, *recorder) {
	t.Helper()
	rec := newRecorder()
	w := Wiring{
		AddrLow:  rec.port(t, "AL"),
		AddrHigh: rec.port(t, "AH"),
		Data:     rec.port(t, "D"),
		CE:       rec.pin("CE"),
		OE:       rec.pin("OE"),
		WE:       rec.pin("WE"),
		BufOE:    rec.pin("BUF"),
	}
	bus, err := NewBus(w, WithSleep(rec.sleep))
	if err != nil {
		t.Fatalf("NewBus: %v", err)
	}
	return bus, rec
}

func TestNewBusValidatesWiring(t *testing.T) {
	rec := newRecorder()

	tests := []struct {
		name string
		w    Wiring
	}{
		{name: "empty wiring", w: Wiring{}},
		{
			name: "missing data port",
			w: Wiring{
				AddrLow:  rec.port(t, "AL"),
				AddrHigh: rec.port(t, "AH"),
				CE:       rec.pin("CE"),
				OE:       rec.pin("OE"),
				WE:       rec.pin("WE"),
				BufOE:    rec.pin("BUF"),
			},
		},
		{
			name: "missing control line",
			w: Wiring{
				AddrLow:  rec.port(t, "AL2"),
				AddrHigh: rec.port(t, "AH2"),
				Data:     rec.port(t, "D2"),
				CE:       rec.pin("CE2"),
				OE:       rec.pin("OE2"),
				WE:       rec.pin("WE2"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewBus(tt.w); err == nil {
				t.Error("NewBus() accepted incomplete wiring")
			}
		})
	}
}

func TestCaptureDisablesBufferFirst(t *testing.T) {
	bus, rec := newRecorderBus(t)

	if err := bus.Capture(); err != nil {
		t.Fatalf("Capture: %v", err)
	}

	if !bus.Held() {
		t.Error("bus not held after capture")
	}
	if len(rec.events) == 0 {
		t.Fatal("no events recorded")
	}
	first := rec.events[0]
	if first.kind != "out" || first.pin != "BUF" || first.level != gpio.High {
		t.Errorf("first event = %+v, want BUF driven high", first)
	}

	// Control lines must end up controller-driven and deasserted.
	for _, pin := range []string{"CE", "OE", "WE"} {
		if rec.indexLevel(pin, gpio.High) == -1 {
			t.Errorf("%s not deasserted high during capture", pin)
		}
	}

	// All 24 bus lines released.
	for _, prefix := range []string{"AL", "AH", "D"} {
		for i := 0; i < 8; i++ {
			if rec.index("in", fmt.Sprintf("%s%d", prefix, i)) == -1 {
				t.Errorf("%s%d not floated during capture", prefix, i)
			}
		}
	}
}

func TestCaptureTwiceFails(t *testing.T) {
	bus, _ := newRecorderBus(t)

	if err := bus.Capture(); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if err := bus.Capture(); !errors.Is(err, ErrBusHeld) {
		t.Errorf("second Capture() error = %v, want ErrBusHeld", err)
	}
}

func TestReleaseWithoutCaptureFails(t *testing.T) {
	bus, _ := newRecorderBus(t)

	if err := bus.Release(); !errors.Is(err, ErrBusReleased) {
		t.Errorf("Release() without capture error = %v, want ErrBusReleased", err)
	}
}

func TestReleaseRestoresExternalMaster(t *testing.T) {
	bus, rec := newRecorderBus(t)

	if err := bus.Capture(); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	rec.reset()

	if err := bus.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if bus.Held() {
		t.Error("bus still held after release")
	}

	if rec.indexLevel("WE", gpio.High) == -1 {
		t.Error("WE not deasserted on release")
	}
	if rec.indexLevel("OE", gpio.Low) == -1 {
		t.Error("OE not asserted for the external master on release")
	}
	ceIn := rec.index("in", "CE")
	if ceIn == -1 {
		t.Error("CE not reconfigured as input on release")
	}

	// The buffer comes back last, after every line is let go.
	last := rec.events[len(rec.events)-1]
	if last.kind != "out" || last.pin != "BUF" || last.level != gpio.Low {
		t.Errorf("last event = %+v, want BUF driven low", last)
	}
}

func TestWriteByteSignalOrder(t *testing.T) {
	tests := []struct {
		name string
		addr uint16
		data byte
	}{
		{name: "zero", addr: 0x0000, data: 0x00},
		{name: "mixed bits", addr: 0x1234, data: 0xAB},
		{name: "all ones", addr: 0xFFFF, data: 0xFF},
		{name: "command address", addr: 0x5555, data: 0xAA},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus, rec := newRecorderBus(t)
			if err := bus.Capture(); err != nil {
				t.Fatalf("Capture: %v", err)
			}
			if err := bus.OutputMode(); err != nil {
				t.Fatalf("OutputMode: %v", err)
			}
			rec.reset()

			if err := bus.WriteByte(tt.addr, tt.data); err != nil {
				t.Fatalf("WriteByte: %v", err)
			}

			weLow := rec.indexLevel("WE", gpio.Low)
			ceLow := rec.indexLevel("CE", gpio.Low)
			if weLow == -1 || ceLow == -1 {
				t.Fatal("WE/CE never asserted")
			}
			if weLow > ceLow {
				t.Errorf("WE asserted at %d, after CE at %d; WE must be no later than CE", weLow, ceLow)
			}

			// Address and data must be stable before the strobes fall.
			for i := 0; i < 8; i++ {
				for _, prefix := range []string{"AL", "AH", "D"} {
					idx := rec.index("out", fmt.Sprintf("%s%d", prefix, i))
					if idx == -1 || idx > weLow {
						t.Fatalf("%s%d driven at %d, after WE assert at %d", prefix, i, idx, weLow)
					}
				}
			}

			// Driven levels match the requested address and data.
			want := map[string]uint16{"AL": tt.addr & 0xFF, "AH": tt.addr >> 8, "D": uint16(tt.data)}
			for prefix, value := range want {
				for i := 0; i < 8; i++ {
					name := fmt.Sprintf("%s%d", prefix, i)
					wantLevel := gpio.Level(value&(1<<i) != 0)
					if rec.pins[name].level != wantLevel {
						t.Errorf("%s driven %v, want %v", name, rec.pins[name].level, wantLevel)
					}
				}
			}

			// Pulse dwell and recovery hold, both at the datasheet floor.
			ceHigh := rec.indexLevel("CE", gpio.High)
			sleeps := rec.sleeps()
			if len(sleeps) != 2 {
				t.Fatalf("got %d sleeps, want 2", len(sleeps))
			}
			for i, d := range sleeps {
				if d < DefaultWritePulse {
					t.Errorf("sleep %d = %v, below write pulse floor %v", i, d, DefaultWritePulse)
				}
			}
			pulse := rec.index("sleep", "")
			if pulse < ceLow || pulse > ceHigh {
				t.Errorf("write pulse dwell at %d not between assert (%d) and deassert (%d)", pulse, ceLow, ceHigh)
			}
			if last := rec.events[len(rec.events)-1]; last.kind != "sleep" {
				t.Errorf("last event = %+v, want recovery hold", last)
			}
		})
	}
}

func TestWriteByteOutsideWindow(t *testing.T) {
	bus, _ := newRecorderBus(t)

	if err := bus.WriteByte(0x0000, 0x42); !errors.Is(err, ErrBusReleased) {
		t.Errorf("WriteByte() outside window error = %v, want ErrBusReleased", err)
	}
	if _, err := bus.ReadByte(0x0000); !errors.Is(err, ErrBusReleased) {
		t.Errorf("ReadByte() outside window error = %v, want ErrBusReleased", err)
	}
	if err := bus.OutputMode(); !errors.Is(err, ErrBusReleased) {
		t.Errorf("OutputMode() outside window error = %v, want ErrBusReleased", err)
	}
}

func TestReadByteSettleAndRelease(t *testing.T) {
	bus, rec := newRecorderBus(t)
	if err := bus.Capture(); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	rec.reset()

	if _, err := bus.ReadByte(0x0180); err != nil {
		t.Fatalf("ReadByte: %v", err)
	}

	ceLow := rec.indexLevel("CE", gpio.Low)
	oeLow := rec.indexLevel("OE", gpio.Low)
	oeHigh := rec.indexLevel("OE", gpio.High)
	settle := rec.index("sleep", "")
	if ceLow == -1 || oeLow == -1 || settle == -1 {
		t.Fatal("read strobes or settle missing")
	}
	if settle < oeLow || settle > oeHigh {
		t.Errorf("settle at %d not inside the strobe window (%d..%d)", settle, oeLow, oeHigh)
	}

	sleeps := rec.sleeps()
	if len(sleeps) != 1 {
		t.Fatalf("got %d sleeps, want 1", len(sleeps))
	}
	if sleeps[0] < DefaultReadSettle {
		t.Errorf("settle = %v, below access time floor %v", sleeps[0], DefaultReadSettle)
	}

	// Address bus floated again after the cycle.
	for i := 0; i < 8; i++ {
		for _, prefix := range []string{"AL", "AH"} {
			name := fmt.Sprintf("%s%d", prefix, i)
			in := rec.index("in", name)
			if in == -1 || in < oeHigh {
				t.Errorf("%s not floated after the strobes deasserted", name)
			}
		}
	}
}

// The chip commits a loaded page during a fixed internal cycle; the
// driver must wait it out after the last load and before ownership
// goes back to the external master.
func TestWritePageCommitWait(t *testing.T) {
	bus, rec := newRecorderBus(t)
	drv := New(bus)

	if err := drv.WritePage(context.Background(), 0, []byte{0x01, 0x02}); err != nil {
		t.Fatalf("WritePage: %v", err)
	}

	commit := rec.sleepAtLeast(DefaultPageCycle)
	if commit == -1 {
		t.Fatalf("no wait of at least %v after the page load", DefaultPageCycle)
	}
	if lastLoad := rec.lastIndex("out", "D0"); commit < lastLoad {
		t.Errorf("program wait at %d before the last data load at %d", commit, lastLoad)
	}
	ceIn := rec.index("in", "CE")
	bufLow := rec.indexLevel("BUF", gpio.Low)
	if commit > ceIn || commit > bufLow {
		t.Errorf("program wait at %d after release began (CE in at %d, BUF low at %d)", commit, ceIn, bufLow)
	}
}

// Same for the erase cycle: the wait follows the erase-confirm write
// and precedes the release.
func TestChipEraseCommitWait(t *testing.T) {
	bus, rec := newRecorderBus(t)
	drv := New(bus)

	if err := drv.ChipErase(context.Background()); err != nil {
		t.Fatalf("ChipErase: %v", err)
	}

	commit := rec.sleepAtLeast(DefaultEraseCycle)
	if commit == -1 {
		t.Fatalf("no wait of at least %v after the erase confirm", DefaultEraseCycle)
	}
	if lastWrite := rec.lastIndex("out", "D0"); commit < lastWrite {
		t.Errorf("erase wait at %d before the erase confirm write at %d", commit, lastWrite)
	}
	ceIn := rec.index("in", "CE")
	bufLow := rec.indexLevel("BUF", gpio.Low)
	if commit > ceIn || commit > bufLow {
		t.Errorf("erase wait at %d after release began (CE in at %d, BUF low at %d)", commit, ceIn, bufLow)
	}
}

// Options passed to New reach the bus too, so the per-byte dwell and
// the sequence waits always come from one configuration.
func TestDriverSharesConfigWithBus(t *testing.T) {
	rec := newRecorder()
	w := Wiring{
		AddrLow:  rec.port(t, "AL"),
		AddrHigh: rec.port(t, "AH"),
		Data:     rec.port(t, "D"),
		CE:       rec.pin("CE"),
		OE:       rec.pin("OE"),
		WE:       rec.pin("WE"),
		BufOE:    rec.pin("BUF"),
	}
	bus, err := NewBus(w)
	if err != nil {
		t.Fatalf("NewBus: %v", err)
	}

	// The recorder sleep goes to New only; the bus must still use it
	// for its per-byte dwell.
	drv := New(bus, WithSleep(rec.sleep), WithPageCycle(20*time.Millisecond))

	if err := drv.WritePage(context.Background(), 0, []byte{0x01}); err != nil {
		t.Fatalf("WritePage: %v", err)
	}

	sleeps := rec.sleeps()
	if len(sleeps) == 0 {
		t.Fatal("bus did not use the sleep passed to New")
	}
	if rec.sleepAtLeast(20*time.Millisecond) == -1 {
		t.Error("lengthened page cycle not applied")
	}
}

// A pin fault mid-page must not leave the bus captured: the driver
// releases ownership on every return path.
func TestDriverReleasesBusOnError(t *testing.T) {
	bus, rec := newRecorderBus(t)
	drv := New(bus, WithSleep(rec.sleep))

	// Fail the data line after the unlock sequence has gone out.
	rec.pins["D0"].failAfter = 6

	err := drv.WritePage(context.Background(), 0, []byte{0x01, 0x02, 0x03, 0x04})
	if err == nil {
		t.Fatal("WritePage() succeeded despite pin fault")
	}
	if bus.Held() {
		t.Error("bus still held after failed WritePage")
	}
	last := rec.events[len(rec.events)-1]
	if last.kind != "out" || last.pin != "BUF" || last.level != gpio.Low {
		t.Errorf("last event = %+v, want external buffer re-enabled", last)
	}
}
