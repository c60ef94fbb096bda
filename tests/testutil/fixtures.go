package testutil

import (
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	identityapp "github.com/zeniva/backend/internal/application/identity"
	tripapp "github.com/zeniva/backend/internal/application/trip"
)

// Fixtures builds plausible, valid inputs. A fixed seed gives the same
// sequence across runs; seed 0 is random.
type Fixtures struct {
	faker *gofakeit.Faker
	seq   int
}

// NewFixtures creates a fixture builder
func NewFixtures(seed uint64) *Fixtures {
	return &Fixtures{faker: gofakeit.New(seed)}
}

// Email returns an address that is unique within this builder
func (f *Fixtures) Email() string {
	f.seq++
	local, domain, _ := strings.Cut(strings.ToLower(f.faker.Email()), "@")
	return fmt.Sprintf("%s+%d@%s", local, f.seq, domain)
}

// Password satisfies the signup rules
func (f *Fixtures) Password() string {
	return f.faker.Password(true, true, true, false, false, 16)
}

// Signup returns a signup into space. Partner signups carry a company.
func (f *Fixtures) Signup(space string) identityapp.SignupInput {
	in := identityapp.SignupInput{
		Email:    f.Email(),
		Name:     f.faker.Name(),
		Password: f.Password(),
		Space:    space,
	}
	switch space {
	case "partner":
		in.Company = &identityapp.CompanyInput{
			Name:  f.faker.Company(),
			Phone: f.faker.Phone(),
		}
	case "agent":
		in.Divisions = []string{"travel"}
	case "traveler":
		in.Traveler = &identityapp.TravelerInput{
			Phone:       f.faker.Phone(),
			Nationality: f.faker.Country(),
		}
	}
	return in
}

// Client returns a house client with contact details
func (f *Fixtures) Client() tripapp.CreateClientInput {
	return tripapp.CreateClientInput{
		Name:  f.faker.Name(),
		Email: f.Email(),
		Phone: f.faker.Phone(),
		Notes: f.faker.Sentence(8),
	}
}

// Trip opens a trip for clientID in EUR
func (f *Fixtures) Trip(clientID uuid.UUID) tripapp.CreateTripInput {
	return tripapp.CreateTripInput{
		ClientID: clientID,
		Title:    f.faker.City() + " getaway",
		Currency: "EUR",
	}
}

// Component prices a line of kind with a whole-euro net between 200 and
// 5000 and a sell 20% above it.
func (f *Fixtures) Component(kind string) tripapp.ComponentInput {
	net := decimal.NewFromInt(int64(f.faker.Number(200, 5000)))
	return tripapp.ComponentInput{
		Kind:          kind,
		Supplier:      f.faker.Company(),
		Description:   f.faker.Sentence(5),
		Net:           net,
		Sell:          net.Mul(decimal.RequireFromString("1.2")),
		CommissionPct: decimal.NewFromInt(10),
	}
}

// Payment records a card payment of amount
func (f *Fixtures) Payment(amount decimal.Decimal) tripapp.AddPaymentInput {
	return tripapp.AddPaymentInput{
		Amount:    amount,
		Method:    "card",
		Reference: f.faker.UUID(),
	}
}
