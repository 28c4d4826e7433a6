package templates

import (
	"fmt"
	"sort"
	"strings"
)

// Template is a starter contract with bracketed placeholders.
type Template struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Filename string `json:"filename"`
	Body     string `json:"body"`
}

var registry = map[string]Template{
	"employment": {
		Name:     "employment",
		Title:    "Employment Agreement",
		Filename: "employment_template.txt",
		Body:     employment,
	},
	"vendor": {
		Name:     "vendor",
		Title:    "Vendor Agreement",
		Filename: "vendor_template.txt",
		Body:     vendor,
	},
	"lease": {
		Name:     "lease",
		Title:    "Office Lease",
		Filename: "lease_template.txt",
		Body:     lease,
	},
}

// Get looks a template up by name, case-insensitively.
func Get(name string) (Template, error) {
	t, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Template{}, fmt.Errorf("unknown template: %s (want one of %s)", name, strings.Join(Names(), ", "))
	}
	return t, nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

const employment = `EMPLOYMENT AGREEMENT

This Employment Agreement (the "Agreement") is made this [Date], by and between [Employer Name] (the "Company") and [Employee Name] (the "Employee").

1. POSITION AND DUTIES
The Company agrees to employ the Employee as [Job Title]. The Employee agrees to perform the duties tailored to this position.

2. COMPENSATION
The Company shall pay the Employee a salary of [Amount] per annum, payable in accordance with the Company's standard payroll schedule.

3. CONFIDENTIALITY
The Employee agrees not to disclose any confidential information of the Company to third parties during or after employment.

4. NON-COMPETE (Attention: Review Risk)
During the term of this Agreement and for a period of [Number] years after termination, the Employee shall not engage in any business that competes with the Company within [Location].

5. TERMINATION
This Agreement may be terminated by either party with [Number] days' written notice. The Company reserves the right to terminate for cause immediately.

6. GOVERNING LAW
This Agreement shall be governed by the laws of India.

[Signature Employer]
[Signature Employee]
`

const vendor = `VENDOR SERVICE AGREEMENT

This Vendor Service Agreement is between [Client Name] ("Client") and [Vendor Name] ("Vendor").

1. SERVICES
Vendor agrees to provide the following services: [Description of Services].

2. PAYMENT
Client agrees to pay Vendor [Amount] upon completion of services.

3. DELAY PENALTY (Risky Clause)
If Vendor fails to deliver services by the agreed deadline, a penalty of [Amount] per day shall be imposed, up to [Percentage]% of the total contract value.

4. INDEMNIFICATION
Vendor agrees to indemnify and hold harmless the Client from any claims arising out of the Vendor's negligence.

5. TERM
This agreement shall commence on [Start Date] and end on [End Date].

[Signature Client]
[Signature Vendor]
`

const lease = `OFFICE LEASE AGREEMENT

Landlord: [Landlord Name]
Tenant: [Tenant Name]
Property: [Address]

1. RENT
Tenant agrees to pay rent of [Amount] per month.

2. SECURITY DEPOSIT
Tenant shall provide a security deposit of [Amount], refundable execution of the lease.

3. AUTO-RENEWAL (Review Carefully)
This lease shall automatically renew for successive terms of [Number] years unless terminated by either party with 60 days notice prior to expiration.

4. MAINTENANCE
Tenant is responsible for all minor repairs up to [Amount].

[Signature Landlord]
[Signature Tenant]
`
