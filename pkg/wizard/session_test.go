package wizard_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/demoforge/demoforge/pkg/wizard"
)

func validForm() wizard.Form {
	return wizard.Form{
		CompanyName:     "Acme Corp",
		Domain:          "acme.com",
		Vertical:        "Retail",
		Audience:        "Executives",
		RecordsPerTable: 40,
	}
}

var _ = Describe("ValidateForm", func() {
	It("accepts a complete form", func() {
		Expect(wizard.ValidateForm(validForm())).To(Succeed())
	})

	It("requires company name, domain and audience", func() {
		for _, mutate := range []func(*wizard.Form){
			func(f *wizard.Form) { f.CompanyName = "" },
			func(f *wizard.Form) { f.Domain = "" },
			func(f *wizard.Form) { f.Audience = "" },
		} {
			form := validForm()
			mutate(&form)
			var verr *wizard.ValidationError
			Expect(errors.As(wizard.ValidateForm(form), &verr)).To(BeTrue())
		}
	})

	It("rejects unknown verticals", func() {
		form := validForm()
		form.Vertical = "Quantum Gardening"
		err := wizard.ValidateForm(form)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("Quantum Gardening"))
	})

	It("requires a sub-vertical when the vertical defines options", func() {
		form := validForm()
		form.Vertical = "Health Services"
		Expect(wizard.ValidateForm(form)).To(HaveOccurred())

		form.SubVertical = "Genomics"
		Expect(wizard.ValidateForm(form)).To(Succeed())
	})

	It("rejects sub-verticals from the wrong vertical", func() {
		form := validForm()
		form.Vertical = "Manufacturing"
		form.SubVertical = "Genomics"
		Expect(wizard.ValidateForm(form)).To(HaveOccurred())
	})

	It("does not require a sub-vertical for verticals without options", func() {
		form := validForm()
		form.Vertical = "Custom"
		Expect(wizard.ValidateForm(form)).To(Succeed())
	})

	It("requires at least one record per table", func() {
		form := validForm()
		form.RecordsPerTable = 0
		Expect(wizard.ValidateForm(form)).To(HaveOccurred())
	})
})

var _ = Describe("Session", func() {
	var s *wizard.Session

	BeforeEach(func() {
		s = wizard.NewSession()
	})

	It("starts in the form state with a unique ID", func() {
		Expect(s.State()).To(Equal(wizard.StateForm))
		Expect(s.ID).NotTo(BeEmpty())
		Expect(wizard.NewSession().ID).NotTo(Equal(s.ID))
	})

	It("walks form -> brand-selection -> chat", func() {
		Expect(s.SubmitForm(validForm())).To(Succeed())
		Expect(s.State()).To(Equal(wizard.StateBrandSelection))
		Expect(s.Form().CompanyName).To(Equal("Acme Corp"))

		Expect(s.ChooseBrand(wizard.BrandChoice{LogoURL: "https://cdn/logo.svg", ColorHex: "#112233"})).To(Succeed())
		Expect(s.State()).To(Equal(wizard.StateChat))
		Expect(s.Brand().ColorHex).To(Equal("#112233"))
	})

	It("keeps the state on a validation failure", func() {
		Expect(s.SubmitForm(wizard.Form{})).To(HaveOccurred())
		Expect(s.State()).To(Equal(wizard.StateForm))
	})

	It("rejects out-of-order transitions", func() {
		err := s.ChooseBrand(wizard.BrandChoice{LogoURL: "x", ColorHex: "y"})
		var terr *wizard.InvalidTransitionError
		Expect(errors.As(err, &terr)).To(BeTrue())
		Expect(terr.From).To(Equal(wizard.StateForm))

		Expect(s.SubmitForm(validForm())).To(Succeed())
		Expect(errors.As(s.SubmitForm(validForm()), &terr)).To(BeTrue())
	})

	It("rejects chat turns before the chat state", func() {
		Expect(s.BeginTurn()).To(HaveOccurred())
	})

	Describe("turn slot", func() {
		BeforeEach(func() {
			Expect(s.SubmitForm(validForm())).To(Succeed())
			Expect(s.ChooseBrand(wizard.BrandChoice{LogoURL: "l", ColorHex: "c"})).To(Succeed())
		})

		It("allows only one in-flight turn", func() {
			Expect(s.BeginTurn()).To(Succeed())
			Expect(s.BeginTurn()).To(MatchError(wizard.ErrTurnInFlight))

			s.EndTurn()
			Expect(s.BeginTurn()).To(Succeed())
		})
	})
})
