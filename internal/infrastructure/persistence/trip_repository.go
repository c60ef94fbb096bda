package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zeniva/backend/internal/domain/identity"
	"github.com/zeniva/backend/internal/domain/trip"
	"github.com/zeniva/backend/internal/infrastructure/persistence/models"
)

// GormClientRepository implements trip.ClientRepository using GORM
type GormClientRepository struct {
	db *gorm.DB
}

// NewGormClientRepository creates a new GormClientRepository
func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

func (r *GormClientRepository) Create(ctx context.Context, client *trip.Client) error {
	if err := r.db.WithContext(ctx).Create(models.ClientModelFromDomain(client)).Error; err != nil {
		return translateError(err)
	}
	client.MarkSaved()
	return nil
}

// Update saves the client with a version check
func (r *GormClientRepository) Update(ctx context.Context, client *trip.Client) error {
	model := models.ClientModelFromDomain(client)
	if err := updateVersioned(r.db.WithContext(ctx), model, client.ID, client.ExpectedVersion()); err != nil {
		return err
	}
	client.MarkSaved()
	return nil
}

func (r *GormClientRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*trip.Client, error) {
	var model models.ClientModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs loads several clients; unknown IDs are skipped
func (r *GormClientRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*trip.Client, error) {
	if len(ids) == 0 {
		return []*trip.Client{}, nil
	}
	var rows []models.ClientModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	clients := make([]*trip.Client, len(rows))
	for i := range rows {
		clients[i] = rows[i].ToDomain()
	}
	return clients, nil
}

func (r *GormClientRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter trip.ClientFilter) ([]*trip.Client, int64, error) {
	f := filter.Filter.Normalize()
	query := r.db.WithContext(ctx).Model(&models.ClientModel{}).Where("tenant_id = ?", tenantID)
	if filter.Origin != nil {
		query = query.Where("origin = ?", *filter.Origin)
	}
	if agent := identity.NormalizeEmail(filter.AgentEmail); agent != "" {
		query = query.Where(`(owner_email = ? OR CAST(assigned_agents AS TEXT) LIKE ? ESCAPE '\')`, agent, `%"`+escapeLike(agent)+`"%`)
	}
	if f.Search != "" {
		like := "%" + escapeLike(toLower(f.Search)) + "%"
		query = query.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\')`, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.ClientModel
	if err := query.
		Order(orderClause(f.OrderBy, f.OrderDir, ClientSortFields, "created_at")).
		Offset(f.Offset()).Limit(f.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	clients := make([]*trip.Client, len(rows))
	for i := range rows {
		clients[i] = rows[i].ToDomain()
	}
	return clients, total, nil
}

// GormFileRepository implements trip.FileRepository using GORM. Children
// are written in the same transaction as the file header.
type GormFileRepository struct {
	db *gorm.DB
}

// NewGormFileRepository creates a new GormFileRepository
func NewGormFileRepository(db *gorm.DB) *GormFileRepository {
	return &GormFileRepository{db: db}
}

func (r *GormFileRepository) Create(ctx context.Context, file *trip.File) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(models.TripFileModelFromDomain(file)).Error; err != nil {
			return translateError(err)
		}
		return saveChildren(tx, file)
	})
	if err != nil {
		return err
	}
	file.MarkSaved()
	return nil
}

// Save updates the file header under a version check and syncs children.
// Removed components are deleted; payments and documents are never removed.
func (r *GormFileRepository) Save(ctx context.Context, file *trip.File) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateVersioned(tx, models.TripFileModelFromDomain(file), file.ID, file.ExpectedVersion()); err != nil {
			return err
		}

		keep := make([]uuid.UUID, len(file.Components))
		for i, c := range file.Components {
			keep[i] = c.ID
		}
		del := tx.Where("trip_id = ?", file.ID)
		if len(keep) > 0 {
			del = del.Where("id NOT IN ?", keep)
		}
		if err := del.Delete(&models.ComponentModel{}).Error; err != nil {
			return err
		}
		return saveChildren(tx, file)
	})
	if err != nil {
		return err
	}
	file.MarkSaved()
	return nil
}

func saveChildren(tx *gorm.DB, file *trip.File) error {
	upsert := clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}

	if len(file.Components) > 0 {
		rows := make([]*models.ComponentModel, len(file.Components))
		for i, c := range file.Components {
			c.TripID = file.ID
			rows[i] = models.ComponentModelFromDomain(c)
		}
		if err := tx.Clauses(upsert).Create(&rows).Error; err != nil {
			return err
		}
	}
	if len(file.Payments) > 0 {
		rows := make([]*models.PaymentModel, len(file.Payments))
		for i, p := range file.Payments {
			p.TripID = file.ID
			rows[i] = models.PaymentModelFromDomain(p)
		}
		if err := tx.Clauses(upsert).Create(&rows).Error; err != nil {
			return err
		}
	}
	if len(file.Documents) > 0 {
		rows := make([]*models.DocumentModel, len(file.Documents))
		for i, d := range file.Documents {
			d.TripID = file.ID
			rows[i] = models.DocumentModelFromDomain(d)
		}
		if err := tx.Clauses(upsert).Create(&rows).Error; err != nil {
			return err
		}
	}
	return nil
}

func withChildren(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Components", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Documents", func(db *gorm.DB) *gorm.DB { return db.Order("uploaded_at ASC") })
}

func (r *GormFileRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*trip.File, error) {
	var model models.TripFileModel
	if err := withChildren(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

func (r *GormFileRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter trip.FileFilter) ([]*trip.File, int64, error) {
	f := filter.Filter.Normalize()
	query := r.db.WithContext(ctx).Model(&models.TripFileModel{}).Where("tenant_id = ?", tenantID)
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.ClientIDs != nil {
		if len(filter.ClientIDs) == 0 {
			return []*trip.File{}, 0, nil
		}
		query = query.Where("client_id IN ?", filter.ClientIDs)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if f.Search != "" {
		query = query.Where(`LOWER(title) LIKE ? ESCAPE '\'`, "%"+escapeLike(toLower(f.Search))+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.TripFileModel
	if err := withChildren(query).
		Order(orderClause(f.OrderBy, f.OrderDir, TripSortFields, "created_at")).
		Offset(f.Offset()).Limit(f.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return filesToDomain(rows), total, nil
}

// FindByClientIDs loads every file of the given clients with children
func (r *GormFileRepository) FindByClientIDs(ctx context.Context, tenantID uuid.UUID, clientIDs []uuid.UUID) ([]*trip.File, error) {
	if len(clientIDs) == 0 {
		return []*trip.File{}, nil
	}
	var rows []models.TripFileModel
	if err := withChildren(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND client_id IN ?", tenantID, clientIDs).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return filesToDomain(rows), nil
}

func filesToDomain(rows []models.TripFileModel) []*trip.File {
	files := make([]*trip.File, len(rows))
	for i := range rows {
		files[i] = rows[i].ToDomain()
	}
	return files
}
