package loop_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/san-kum/tecolab/internal/board"
	"github.com/san-kum/tecolab/internal/control"
	"github.com/san-kum/tecolab/internal/disturbance"
	"github.com/san-kum/tecolab/internal/experiment"
	"github.com/san-kum/tecolab/internal/loop"
	"github.com/san-kum/tecolab/internal/lti"
	"github.com/san-kum/tecolab/internal/protocol"
	"github.com/san-kum/tecolab/internal/storage"
	"github.com/san-kum/tecolab/internal/thermal"
)

type fakeClock struct {
	now    time.Time
	onTick func(time.Time)
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.now = c.now.Add(d)
	if c.onTick != nil {
		c.onTick(c.now)
	}
}

type call struct {
	op  string
	pwm thermal.PWM
}

type fakeLink struct {
	temps   thermal.Temperatures
	calls   []call
	readErr error
	hot     bool
}

func (l *fakeLink) ReadTemperatures() (thermal.Temperatures, error) {
	l.calls = append(l.calls, call{op: "read"})
	return l.temps, l.readErr
}

func (l *fakeLink) WritePWMs(p thermal.PWM) error {
	l.calls = append(l.calls, call{op: "write", pwm: p})
	return nil
}

func (l *fakeLink) Overheated() bool { return l.hot }

type memSink struct {
	records []storage.Record
	flushes int
}

func (s *memSink) Append(r storage.Record) error {
	s.records = append(s.records, r)
	return nil
}

func (s *memSink) Flush() error {
	s.flushes++
	return nil
}

const script = `TIME,SP1_ABS,SP2_ABS,H1_POS_SAT
0,40,35,
1000,50,45,80
5000,,,
`

var _ = Describe("Loop", func() {
	var (
		clock *fakeClock
		link  *fakeLink
		sink  *memSink
		sched *experiment.Scheduler
		cfg   loop.Config
	)

	BeforeEach(func() {
		table, _, err := experiment.Parse(strings.NewReader(script), 200)
		Expect(err).NotTo(HaveOccurred())
		log, _ := test.NewNullLogger()

		clock = &fakeClock{now: time.Unix(1_700_000_000, 0)}
		link = &fakeLink{temps: thermal.Temperatures{Heater1: 30, Heater2: 31, Ambient: 25}}
		sink = &memSink{}
		sched = experiment.NewScheduler(table, 200)
		law := control.LawFunc(func(sp thermal.Setpoints, temps thermal.Temperatures) (thermal.PWM, error) {
			return thermal.PWM{(sp.Abs1 - temps.Heater1) * 10, sp.Abs2 - temps.Heater2, 0}, nil
		})
		cfg = loop.Config{
			Link:        link,
			Scheduler:   sched,
			Runtime:     control.NewRuntime(law, control.NewGate(0, false)),
			Disturbance: disturbance.New(),
			Sink:        sink,
			Clock:       clock,
			Log:         log,
		}
	})

	run := func() (loop.Stats, error) {
		l, err := loop.New(cfg)
		Expect(err).NotTo(HaveOccurred())
		return l.Run(context.Background())
	}

	It("runs one cycle per period until the final row", func() {
		stats, err := run()
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.Cycles).To(Equal(24))
		Expect(stats.Stopped).To(BeFalse())
		Expect(sink.records).To(HaveLen(24))
		Expect(sink.records[0].Time).To(Equal(int64(200)))
		Expect(sink.records[23].Time).To(Equal(int64(4800)))
	})

	It("follows the active row", func() {
		_, err := run()
		Expect(err).NotTo(HaveOccurred())

		byTime := map[int64]storage.Record{}
		for _, r := range sink.records {
			byTime[r.Time] = r
		}
		Expect(byTime[200].Row.Time).To(Equal(int64(0)))
		Expect(byTime[200].Row.Setpoints.Abs1).To(Equal(40.0))
		Expect(byTime[1400].Row.Time).To(Equal(int64(1000)))
		Expect(byTime[1600].Row.Setpoints.Abs1).To(Equal(50.0))
	})

	It("applies the disturbance to what it writes", func() {
		_, err := run()
		Expect(err).NotTo(HaveOccurred())

		early := sink.records[0]
		Expect(early.Computed[thermal.Heater1]).To(Equal(100.0))
		Expect(early.Disturbed[thermal.Heater1]).To(Equal(100.0))

		late := sink.records[10]
		Expect(late.Computed[thermal.Heater1]).To(Equal(200.0))
		Expect(late.Disturbed[thermal.Heater1]).To(Equal(80.0))
	})

	It("keeps the strict cycle order and switches off at the end", func() {
		_, err := run()
		Expect(err).NotTo(HaveOccurred())

		Expect(link.calls).To(HaveLen(2*24 + 1))
		for i := 0; i < 24; i++ {
			Expect(link.calls[2*i].op).To(Equal("read"))
			Expect(link.calls[2*i+1].op).To(Equal("write"))
		}
		last := link.calls[len(link.calls)-1]
		Expect(last).To(Equal(call{op: "write", pwm: thermal.PWM{}}))
		Expect(sink.flushes).To(Equal(1))
	})

	It("notifies observers after logging", func() {
		var seen []int64
		cfg.Observers = []loop.Observer{loop.ObserverFunc(func(r storage.Record) {
			Expect(sink.records[len(sink.records)-1].Time).To(Equal(r.Time))
			seen = append(seen, r.Time)
		})}
		_, err := run()
		Expect(err).NotTo(HaveOccurred())
		Expect(seen).To(HaveLen(24))
	})

	It("stops on cancellation and still switches off", func() {
		ctx, cancel := context.WithCancel(context.Background())
		start := clock.now
		clock.onTick = func(now time.Time) {
			if now.Sub(start) >= 1100*time.Millisecond {
				cancel()
			}
		}
		l, err := loop.New(cfg)
		Expect(err).NotTo(HaveOccurred())

		stats, err := l.Run(ctx)
		Expect(err).To(MatchError(thermal.ErrStopped))
		Expect(stats.Stopped).To(BeTrue())
		Expect(stats.Cycles).To(Equal(5))
		Expect(link.calls[len(link.calls)-1].pwm).To(Equal(thermal.PWM{}))
		Expect(sink.flushes).To(Equal(1))
	})

	It("aborts on a link failure with the cycle number", func() {
		link.readErr = protocol.ErrShortRead
		stats, err := run()
		Expect(errors.Is(err, protocol.ErrShortRead)).To(BeTrue())
		var cerr *thermal.CycleError
		Expect(errors.As(err, &cerr)).To(BeTrue())
		Expect(cerr.Cycle).To(Equal(1))
		Expect(cerr.Elapsed).To(Equal(int64(200)))
		Expect(stats.Cycles).To(Equal(0))
		Expect(link.calls[len(link.calls)-1]).To(Equal(call{op: "write", pwm: thermal.PWM{}}))
	})

	It("holds the last action between gate firings", func() {
		cfg.Runtime = control.NewRuntime(control.Constant{PWM: thermal.PWM{10, 20, 30}}, control.NewGate(1, false))
		_, err := run()
		Expect(err).NotTo(HaveOccurred())
		Expect(sink.records[0].New).To(BeFalse())
		Expect(sink.records[0].Computed).To(Equal(thermal.PWM{}))
		Expect(sink.records[1].New).To(BeTrue())
		Expect(sink.records[2].Computed).To(Equal(thermal.PWM{10, 20, 30}))
	})

	It("rejects incomplete configurations", func() {
		_, err := loop.New(loop.Config{})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Loop against the virtual board", func() {
	It("heats the board and writes a readable log", func() {
		table, _, err := experiment.Parse(strings.NewReader("TIME,SP1_ABS,SP2_ABS\n0,35,30\n20000,,\n"), 500)
		Expect(err).NotTo(HaveOccurred())

		clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
		b := board.New(board.Options{Plant: board.DefaultPlant(), Clock: clock.Now})
		log, _ := test.NewNullLogger()
		link := protocol.NewLink(board.PortName, b, protocol.WithLogger(log))

		rt, _, err := control.NewRegistry().Build("pid", lti.NewEngine(nil), 500)
		Expect(err).NotTo(HaveOccurred())

		s := storage.New(filepath.Join(GinkgoT().TempDir(), "runs"))
		r, err := s.Create(storage.RunMetadata{Controller: "pid", PeriodMs: 500}, 0)
		Expect(err).NotTo(HaveOccurred())

		l, err := loop.New(loop.Config{
			Link:      link,
			Scheduler: experiment.NewScheduler(table, 500),
			Runtime:   rt,
			Sink:      r.Sink,
			Clock:     clock,
			Log:       log,
		})
		Expect(err).NotTo(HaveOccurred())

		stats, err := l.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.Cycles).To(Equal(39))
		Expect(b.PWM()).To(Equal(thermal.PWM{}))
		Expect(b.Temperatures().Heater1).To(BeNumerically(">", 26))

		records, err := s.LoadRecords(r.Meta.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(39))
		Expect(records[0].Disturbed[thermal.Heater1]).To(BeNumerically(">", 50))
	})
})
