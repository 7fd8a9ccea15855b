package experiment_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/tecolab/internal/experiment"
)

const threeRows = `TIME,SP1_ABS,SP2_ABS
0,40,35
1000,50,
5000,,
`

var _ = Describe("Table", func() {
	Describe("Parse", func() {
		It("reads rows and leaves blank cells unset", func() {
			t, warnings, err := experiment.Parse(strings.NewReader(threeRows), 200)
			Expect(err).NotTo(HaveOccurred())
			Expect(warnings).To(BeEmpty())
			Expect(t.Len()).To(Equal(3))
			Expect(t.Final()).To(Equal(int64(5000)))

			r := t.Row(1)
			Expect(r.Time).To(Equal(int64(1000)))
			Expect(r.Get(experiment.ColSP1Abs)).To(Equal(experiment.Some(50)))
			Expect(r.Get(experiment.ColSP2Abs).Set).To(BeFalse())
		})

		It("accepts columns in any order and ignores unknown ones", func() {
			src := "NOTE,SP1_REL,TIME\nx,5,0\ny,,400\n"
			t, _, err := experiment.Parse(strings.NewReader(src), 200)
			Expect(err).NotTo(HaveOccurred())
			Expect(t.Row(0).Get(experiment.ColSP1Rel).Value).To(Equal(5.0))
		})

		It("treats nan cells as blank", func() {
			src := "TIME,H1_POS_SAT\n0,nan\n"
			t, _, err := experiment.Parse(strings.NewReader(src), 200)
			Expect(err).NotTo(HaveOccurred())
			Expect(t.Row(0).Resolve().PosSat[0]).To(Equal(float64(experiment.DefaultPosSat)))
		})

		It("strips a byte order mark from the header", func() {
			src := "\ufeffTIME,SP1_ABS\n0,10\n"
			_, _, err := experiment.Parse(strings.NewReader(src), 200)
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects a table without TIME", func() {
			_, _, err := experiment.Parse(strings.NewReader("SP1_ABS\n10\n"), 200)
			Expect(err).To(MatchError(experiment.ErrMissingTime))
		})

		It("rejects an empty table", func() {
			_, _, err := experiment.Parse(strings.NewReader("TIME,SP1_ABS\n"), 200)
			Expect(err).To(MatchError(experiment.ErrEmpty))
		})

		It("reports the line of a bad cell", func() {
			_, _, err := experiment.Parse(strings.NewReader("TIME,SP1_ABS\n0,hot\n"), 200)
			var perr *experiment.ParseError
			Expect(errors.As(err, &perr)).To(BeTrue())
			Expect(perr.Line).To(Equal(2))
			Expect(perr.Column).To(Equal(experiment.ColSP1Abs))
		})

		It("rejects fractional times", func() {
			_, _, err := experiment.Parse(strings.NewReader("TIME\n0.5\n"), 200)
			var perr *experiment.ParseError
			Expect(errors.As(err, &perr)).To(BeTrue())
		})

		It("rejects times beyond the millisecond range", func() {
			for _, cell := range []string{"1e30", "-1e30", "9223372036854775808"} {
				_, _, err := experiment.Parse(strings.NewReader("TIME\n0\n"+cell+"\n"), 200)
				var perr *experiment.ParseError
				Expect(errors.As(err, &perr)).To(BeTrue(), cell)
				Expect(perr.Line).To(Equal(3))
				Expect(perr.Column).To(Equal(experiment.ColTime))
			}
		})
	})

	Describe("Load", func() {
		It("reads a file from disk", func() {
			path := filepath.Join(GinkgoT().TempDir(), "exp.csv")
			Expect(os.WriteFile(path, []byte(threeRows), 0o644)).To(Succeed())
			t, _, err := experiment.Load(path, 200)
			Expect(err).NotTo(HaveOccurred())
			Expect(t.Len()).To(Equal(3))
		})

		It("wraps a missing file", func() {
			_, _, err := experiment.Load(filepath.Join(GinkgoT().TempDir(), "nope.csv"), 200)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, os.ErrNotExist)).To(BeTrue())
		})
	})

	Describe("Resolve", func() {
		It("fills defaults for blank cells", func() {
			a := experiment.Row{Time: 10}.Resolve()
			for ch := 0; ch < 3; ch++ {
				Expect(a.MulNoise[ch]).To(Equal(1.0))
				Expect(a.AddNoise[ch]).To(Equal(0.0))
				Expect(a.NegSat[ch]).To(Equal(0.0))
				Expect(a.PosSat[ch]).To(Equal(100.0))
				Expect(a.RateSat[ch]).To(Equal(1000.0))
			}
			Expect(a.Setpoints.Abs1).To(Equal(0.0))
			Expect(a.Value(experiment.ColTime)).To(Equal(10.0))
		})

		It("exposes every column through Value", func() {
			var r experiment.Row
			for i, c := range experiment.Columns()[1:] {
				r.Set(c, float64(i+1))
			}
			a := r.Resolve()
			for i, c := range experiment.Columns()[1:] {
				Expect(a.Value(c)).To(Equal(float64(i+1)), c.String())
			}
		})
	})

	Describe("At", func() {
		t := experiment.NewTable([]experiment.Row{{Time: 0}, {Time: 1000}, {Time: 5000}})

		DescribeTable("selects the latest row not after elapsed",
			func(elapsed int64, want int) {
				Expect(t.At(elapsed)).To(Equal(want))
			},
			Entry("before start", int64(-1), -1),
			Entry("at start", int64(0), 0),
			Entry("between rows", int64(999), 0),
			Entry("on a row", int64(1000), 1),
			Entry("past the end", int64(9000), 2),
		)
	})

	It("renders every column", func() {
		t, _, err := experiment.Parse(strings.NewReader(threeRows), 200)
		Expect(err).NotTo(HaveOccurred())
		var buf bytes.Buffer
		experiment.Render(&buf, t)
		Expect(buf.String()).To(ContainSubstring("F_RATE_SAT"))
		Expect(buf.String()).To(ContainSubstring("5000"))
	})
})
