package extraction

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Classify", func() {
	When("the text is below the recognition threshold", func() {
		It("returns none regardless of anchors", func() {
			confidence, valid, legible := Classify(true, true, true, 9)
			Expect(confidence).To(Equal(ConfidenceNone))
			Expect(valid).To(BeFalse())
			Expect(legible).To(BeFalse())
		})
	})

	When("all three anchors are present", func() {
		It("returns high confidence", func() {
			confidence, valid, _ := Classify(true, true, true, 100)
			Expect(confidence).To(Equal(ConfidenceHigh))
			Expect(valid).To(BeTrue())
		})
	})

	When("exactly two anchors are present", func() {
		It("returns medium confidence for any pair", func() {
			pairs := [][3]bool{
				{true, true, false},
				{true, false, true},
				{false, true, true},
			}
			for _, p := range pairs {
				confidence, valid, _ := Classify(p[0], p[1], p[2], 100)
				Expect(confidence).To(Equal(ConfidenceMedium))
				Expect(valid).To(BeTrue())
			}
		})
	})

	When("exactly one anchor is present", func() {
		It("returns low confidence and an invalid receipt", func() {
			confidence, valid, _ := Classify(false, true, false, 100)
			Expect(confidence).To(Equal(ConfidenceLow))
			Expect(valid).To(BeFalse())
		})
	})

	When("no anchor is present", func() {
		It("returns none", func() {
			confidence, valid, _ := Classify(false, false, false, 100)
			Expect(confidence).To(Equal(ConfidenceNone))
			Expect(valid).To(BeFalse())
		})
	})

	It("is monotonic in anchor count", func() {
		rank := map[Confidence]int{
			ConfidenceNone:   0,
			ConfidenceLow:    1,
			ConfidenceMedium: 2,
			ConfidenceHigh:   3,
		}
		base, _, _ := Classify(true, true, false, 100)
		raised, _, _ := Classify(true, true, true, 100)
		Expect(rank[raised]).To(BeNumerically(">", rank[base]))
	})

	When("the text is between the recognition and legibility thresholds", func() {
		It("marks the image illegible but still classifies anchors", func() {
			confidence, valid, legible := Classify(true, true, true, 20)
			Expect(confidence).To(Equal(ConfidenceHigh))
			Expect(valid).To(BeTrue())
			Expect(legible).To(BeFalse())
		})
	})
})
