package experiment_test

import (
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/tecolab/internal/experiment"
)

var _ = Describe("Validate", func() {
	parse := func(src string, period int64) ([]experiment.Warning, error) {
		_, w, err := experiment.Parse(strings.NewReader(src), period)
		return w, err
	}

	DescribeTable("rejects invalid tables",
		func(src string, period int64, kind error) {
			_, err := parse(src, period)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, kind)).To(BeTrue(), err.Error())
			var verr *experiment.ValidationError
			Expect(errors.As(err, &verr)).To(BeTrue())
		},
		Entry("duplicate times", "TIME\n0\n500\n500\n", int64(200), experiment.ErrDuplicateTime),
		Entry("rows closer than the period", "TIME\n0\n100\n", int64(200), experiment.ErrTooDense),
		Entry("rows out of order", "TIME\n0\n1000\n400\n", int64(200), experiment.ErrTooDense),
		Entry("negative time", "TIME\n-200\n0\n", int64(200), experiment.ErrNegativeTime),
		Entry("setpoint above 100", "TIME,SP2_ABS\n0,101\n", int64(200), experiment.ErrSetpointTooHigh),
		Entry("zero rate saturation", "TIME,F_RATE_SAT\n0,0\n", int64(200), experiment.ErrRateSaturation),
		Entry("negative rate saturation", "TIME,H1_RATE_SAT\n0,-5\n", int64(200), experiment.ErrRateSaturation),
	)

	It("accepts rows exactly one period apart", func() {
		_, err := parse("TIME\n0\n200\n400\n", 200)
		Expect(err).NotTo(HaveOccurred())
	})

	It("accepts a setpoint of exactly 100", func() {
		_, err := parse("TIME,SP1_ABS\n0,100\n", 200)
		Expect(err).NotTo(HaveOccurred())
	})

	It("warns on negative relative setpoints per channel", func() {
		warnings, err := parse("TIME,SP1_REL,SP2_REL\n0,-1,-2\n", 200)
		Expect(err).NotTo(HaveOccurred())
		Expect(warnings).To(HaveLen(2))
		for _, w := range warnings {
			Expect(errors.Is(w, experiment.ErrNegativeRelative)).To(BeTrue())
		}
		Expect(warnings[0].Column).To(Equal(experiment.ColSP1Rel))
		Expect(warnings[1].Column).To(Equal(experiment.ColSP2Rel))
	})

	It("collects every problem", func() {
		_, err := parse("TIME,SP1_ABS,H2_RATE_SAT\n0,120,0\n0,,\n", 200)
		var verr *experiment.ValidationError
		Expect(errors.As(err, &verr)).To(BeTrue())
		Expect(errors.Is(err, experiment.ErrDuplicateTime)).To(BeTrue())
		Expect(errors.Is(err, experiment.ErrSetpointTooHigh)).To(BeTrue())
		Expect(errors.Is(err, experiment.ErrRateSaturation)).To(BeTrue())
	})
})
