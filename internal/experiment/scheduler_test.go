package experiment_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/tecolab/internal/experiment"
)

var _ = Describe("Scheduler", func() {
	var s *experiment.Scheduler

	BeforeEach(func() {
		t, _, err := experiment.Parse(strings.NewReader(threeRows), 200)
		Expect(err).NotTo(HaveOccurred())
		s = experiment.NewScheduler(t, 200)
		s.Start(10_000)
	})

	It("fires at most once per period", func() {
		Expect(s.Tick(10_000)).To(BeFalse())
		Expect(s.Tick(10_199)).To(BeFalse())
		Expect(s.Tick(10_200)).To(BeTrue())
		Expect(s.Tick(10_300)).To(BeFalse())
		Expect(s.Tick(10_450)).To(BeTrue())
		Expect(s.Elapsed()).To(Equal(int64(450)))
	})

	It("walks the rows as time passes", func() {
		Expect(s.Tick(10_200)).To(BeTrue())
		Expect(s.ActiveIndex()).To(Equal(0))
		Expect(s.Active().Setpoints.Abs1).To(Equal(40.0))
		Expect(s.Active().Setpoints.Abs2).To(Equal(35.0))

		Expect(s.Tick(11_000)).To(BeTrue())
		Expect(s.ActiveIndex()).To(Equal(1))
		Expect(s.Active().Setpoints.Abs1).To(Equal(50.0))
		Expect(s.Active().Setpoints.Abs2).To(Equal(0.0))
		Expect(s.Running()).To(BeTrue())
	})

	It("never moves backwards", func() {
		last := -1
		for now := int64(10_000); now < 15_000; now += 50 {
			if s.Tick(now) {
				Expect(s.ActiveIndex()).To(BeNumerically(">=", last))
				last = s.ActiveIndex()
			}
		}
		Expect(last).To(Equal(1))
	})

	It("ends at the final timestamp", func() {
		Expect(s.Tick(14_999)).To(BeTrue())
		Expect(s.Tick(15_000)).To(BeFalse())
		Expect(s.Running()).To(BeFalse())
		Expect(s.Tick(15_200)).To(BeFalse())
	})

	It("can be stopped early", func() {
		s.Stop()
		Expect(s.Tick(10_400)).To(BeFalse())
		Expect(s.Running()).To(BeFalse())
	})

	It("reports time until the next cycle", func() {
		Expect(s.Until(10_050)).To(Equal(int64(150)))
		Expect(s.Tick(10_200)).To(BeTrue())
		Expect(s.Until(10_200)).To(Equal(int64(200)))
		Expect(s.Until(10_500)).To(Equal(int64(0)))
	})

	It("clamps the period to one millisecond", func() {
		t := experiment.NewTable([]experiment.Row{{Time: 0}, {Time: 10}})
		s := experiment.NewScheduler(t, 0)
		Expect(s.Period()).To(Equal(int64(1)))
	})
})
