package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zeniva/backend/internal/domain/pricing"
	"github.com/zeniva/backend/internal/domain/shared"
	"github.com/zeniva/backend/internal/domain/shared/valueobject"
	"github.com/zeniva/backend/internal/domain/trip"
)

// ClientModel is the persistence model for trip.Client
type ClientModel struct {
	TenantAggregateModel
	Name           string            `gorm:"type:varchar(200);not null"`
	Email          string            `gorm:"type:varchar(200)"`
	Phone          string            `gorm:"type:varchar(50)"`
	Origin         trip.ClientOrigin `gorm:"type:varchar(20);not null;index"`
	OwnerEmail     string            `gorm:"type:varchar(200);index"`
	AssignedAgents string            `gorm:"type:jsonb;not null;default:'[]'"`
	Notes          string            `gorm:"type:text"`
}

func (ClientModel) TableName() string {
	return "clients"
}

func (m *ClientModel) ToDomain() *trip.Client {
	c := &trip.Client{
		TenantAggregateRoot: m.TenantAggregateModel.TenantAggregateRoot(),
		Name:                m.Name,
		Email:               m.Email,
		Phone:               m.Phone,
		Origin:              m.Origin,
		OwnerEmail:          m.OwnerEmail,
		AssignedAgents:      fromJSON[[]string](m.AssignedAgents),
		Notes:               m.Notes,
	}
	if c.AssignedAgents == nil {
		c.AssignedAgents = []string{}
	}
	return c
}

func ClientModelFromDomain(c *trip.Client) *ClientModel {
	m := &ClientModel{
		Name:           c.Name,
		Email:          c.Email,
		Phone:          c.Phone,
		Origin:         c.Origin,
		OwnerEmail:     c.OwnerEmail,
		AssignedAgents: toJSON(c.AssignedAgents, "[]"),
		Notes:          c.Notes,
	}
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	return m
}

// TripFileModel is the persistence model for trip.File. Children are
// loaded through the has-many associations.
type TripFileModel struct {
	TenantAggregateModel
	ClientID              uuid.UUID        `gorm:"type:uuid;not null;index"`
	Title                 string           `gorm:"type:varchar(300);not null"`
	Status                trip.Status      `gorm:"type:varchar(30);not null;index"`
	Currency              string           `gorm:"type:varchar(3);not null"`
	MarginOverridePct     *decimal.Decimal `gorm:"type:numeric(7,4)"`
	CommissionOverridePct *decimal.Decimal `gorm:"type:numeric(7,4)"`
	IsRebooking           bool             `gorm:"not null;default:false"`
	Components            []ComponentModel `gorm:"foreignKey:TripID"`
	Payments              []PaymentModel   `gorm:"foreignKey:TripID"`
	Documents             []DocumentModel  `gorm:"foreignKey:TripID"`
}

func (TripFileModel) TableName() string {
	return "trip_files"
}

func (m *TripFileModel) ToDomain() *trip.File {
	f := &trip.File{
		TenantAggregateRoot:   m.TenantAggregateModel.TenantAggregateRoot(),
		ClientID:              m.ClientID,
		Title:                 m.Title,
		Status:                m.Status,
		Currency:              valueobject.Currency(m.Currency),
		MarginOverridePct:     m.MarginOverridePct,
		CommissionOverridePct: m.CommissionOverridePct,
		IsRebooking:           m.IsRebooking,
		Components:            make([]*trip.Component, 0, len(m.Components)),
		Payments:              make([]*trip.Payment, 0, len(m.Payments)),
		Documents:             make([]*trip.Document, 0, len(m.Documents)),
	}
	for i := range m.Components {
		f.Components = append(f.Components, m.Components[i].ToDomain())
	}
	for i := range m.Payments {
		f.Payments = append(f.Payments, m.Payments[i].ToDomain(f.Currency))
	}
	for i := range m.Documents {
		f.Documents = append(f.Documents, m.Documents[i].ToDomain())
	}
	return f
}

// TripFileModelFromDomain converts the file header only; children are
// converted separately so they can be upserted on their own tables.
func TripFileModelFromDomain(f *trip.File) *TripFileModel {
	m := &TripFileModel{
		ClientID:              f.ClientID,
		Title:                 f.Title,
		Status:                f.Status,
		Currency:              string(f.Currency),
		MarginOverridePct:     f.MarginOverridePct,
		CommissionOverridePct: f.CommissionOverridePct,
		IsRebooking:           f.IsRebooking,
	}
	m.FromDomainTenantAggregateRoot(f.TenantAggregateRoot)
	return m
}

// ComponentModel is the persistence model for trip.Component
type ComponentModel struct {
	ID               uuid.UUID           `gorm:"type:uuid;primaryKey"`
	TripID           uuid.UUID           `gorm:"type:uuid;not null;index"`
	Kind             pricing.ProductKind `gorm:"type:varchar(20);not null"`
	Supplier         string              `gorm:"type:varchar(200)"`
	Description      string              `gorm:"type:varchar(500);not null"`
	Position         int                 `gorm:"not null;default:0"`
	Currency         string              `gorm:"type:varchar(3);not null"`
	Net              decimal.Decimal     `gorm:"type:numeric(18,4);not null"`
	Sell             decimal.Decimal     `gorm:"type:numeric(18,4);not null"`
	MarginAmount     decimal.Decimal     `gorm:"type:numeric(18,4);not null"`
	MarginPct        decimal.Decimal     `gorm:"type:numeric(7,4);not null"`
	CommissionAmount decimal.Decimal     `gorm:"type:numeric(18,4);not null"`
	CommissionPct    decimal.Decimal     `gorm:"type:numeric(7,4);not null"`
	CreatedAt        time.Time           `gorm:"not null"`
	UpdatedAt        time.Time           `gorm:"not null"`
}

func (ComponentModel) TableName() string {
	return "trip_components"
}

func (m *ComponentModel) ToDomain() *trip.Component {
	return &trip.Component{
		BaseEntity:  shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		TripID:      m.TripID,
		Kind:        m.Kind,
		Supplier:    m.Supplier,
		Description: m.Description,
		Position:    m.Position,
		Pricing: pricing.Pricing{
			Currency:         valueobject.Currency(m.Currency),
			Net:              m.Net,
			Sell:             m.Sell,
			MarginAmount:     m.MarginAmount,
			MarginPct:        m.MarginPct,
			CommissionAmount: m.CommissionAmount,
			CommissionPct:    m.CommissionPct,
		},
	}
}

func ComponentModelFromDomain(c *trip.Component) *ComponentModel {
	return &ComponentModel{
		ID:               c.ID,
		TripID:           c.TripID,
		Kind:             c.Kind,
		Supplier:         c.Supplier,
		Description:      c.Description,
		Position:         c.Position,
		Currency:         string(c.Pricing.Currency),
		Net:              c.Pricing.Net,
		Sell:             c.Pricing.Sell,
		MarginAmount:     c.Pricing.MarginAmount,
		MarginPct:        c.Pricing.MarginPct,
		CommissionAmount: c.Pricing.CommissionAmount,
		CommissionPct:    c.Pricing.CommissionPct,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

// PaymentModel is the persistence model for trip.Payment
type PaymentModel struct {
	ID        uuid.UUID          `gorm:"type:uuid;primaryKey"`
	TripID    uuid.UUID          `gorm:"type:uuid;not null;index"`
	Amount    decimal.Decimal    `gorm:"type:numeric(18,4);not null"`
	Currency  string             `gorm:"type:varchar(3);not null"`
	Method    trip.PaymentMethod `gorm:"type:varchar(20);not null"`
	Status    trip.PaymentStatus `gorm:"type:varchar(20);not null;index"`
	Reference string             `gorm:"type:varchar(200)"`
	PaidAt    *time.Time
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (PaymentModel) TableName() string {
	return "trip_payments"
}

// ToDomain rebuilds the payment; fallback is used when the stored currency is blank.
func (m *PaymentModel) ToDomain(fallback valueobject.Currency) *trip.Payment {
	currency := valueobject.Currency(m.Currency)
	if currency == "" {
		currency = fallback
	}
	amount, err := valueobject.NewMoney(m.Amount, currency)
	if err != nil {
		amount = valueobject.Zero(currency)
	}
	return &trip.Payment{
		BaseEntity: shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		TripID:     m.TripID,
		Amount:     amount,
		Method:     m.Method,
		Status:     m.Status,
		Reference:  m.Reference,
		PaidAt:     m.PaidAt,
	}
}

func PaymentModelFromDomain(p *trip.Payment) *PaymentModel {
	return &PaymentModel{
		ID:        p.ID,
		TripID:    p.TripID,
		Amount:    p.Amount.Amount(),
		Currency:  string(p.Amount.Currency()),
		Method:    p.Method,
		Status:    p.Status,
		Reference: p.Reference,
		PaidAt:    p.PaidAt,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// DocumentModel is the persistence model for trip.Document
type DocumentModel struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey"`
	TripID      uuid.UUID         `gorm:"type:uuid;not null;index"`
	Name        string            `gorm:"type:varchar(300);not null"`
	Kind        trip.DocumentKind `gorm:"type:varchar(20);not null"`
	StorageKey  string            `gorm:"type:varchar(500);not null"`
	ContentType string            `gorm:"type:varchar(100)"`
	Size        int64             `gorm:"not null;default:0"`
	UploadedBy  uuid.UUID         `gorm:"type:uuid;not null"`
	UploadedAt  time.Time         `gorm:"not null"`
}

func (DocumentModel) TableName() string {
	return "trip_documents"
}

func (m *DocumentModel) ToDomain() *trip.Document {
	return &trip.Document{
		ID:          m.ID,
		TripID:      m.TripID,
		Name:        m.Name,
		Kind:        m.Kind,
		StorageKey:  m.StorageKey,
		ContentType: m.ContentType,
		Size:        m.Size,
		UploadedBy:  m.UploadedBy,
		UploadedAt:  m.UploadedAt,
	}
}

func DocumentModelFromDomain(d *trip.Document) *DocumentModel {
	return &DocumentModel{
		ID:          d.ID,
		TripID:      d.TripID,
		Name:        d.Name,
		Kind:        d.Kind,
		StorageKey:  d.StorageKey,
		ContentType: d.ContentType,
		Size:        d.Size,
		UploadedBy:  d.UploadedBy,
		UploadedAt:  d.UploadedAt,
	}
}
