package store_test

import (
	. "github.com/sproutcare/daylog/store"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("ClampLimit", func() {

	It("should clamp zero to the minimum", func() {
		Expect(ClampLimit(0)).To(Equal(1))
	})

	It("should clamp negative values to the minimum", func() {
		Expect(ClampLimit(-10)).To(Equal(1))
	})

	It("should clamp values above the maximum to 100", func() {
		Expect(ClampLimit(500)).To(Equal(100))
	})

	It("should keep values inside the range untouched", func() {
		Expect(ClampLimit(1)).To(Equal(1))
		Expect(ClampLimit(50)).To(Equal(50))
		Expect(ClampLimit(100)).To(Equal(100))
	})
})

var _ = Describe("DbNullString", func() {

	It("should mark empty strings as invalid", func() {
		Expect(DbNullString("").Valid).To(BeFalse())
	})

	It("should keep non-empty strings", func() {
		ns := DbNullString("child-1")
		Expect(ns.Valid).To(BeTrue())
		Expect(ns.String).To(Equal("child-1"))
	})
})
