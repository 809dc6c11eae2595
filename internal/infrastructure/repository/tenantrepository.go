package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"threadmind/internal/domain/tenant"
	"threadmind/internal/infrastructure/persistence/models"
	apperrors "threadmind/internal/shared/errors"
	"threadmind/internal/shared/logger"
)

// TenantRepositoryImpl implements tenant.Repository. There is at most one
// account row per installation.
type TenantRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewTenantRepository(db *gorm.DB, log logger.Interface) tenant.Repository {
	return &TenantRepositoryImpl{db: db, logger: log}
}

func (r *TenantRepositoryImpl) Get(ctx context.Context) (*tenant.Account, error) {
	var model models.TenantAccountModel
	err := r.db.WithContext(ctx).Order("id").First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		r.logger.Errorw("failed to load tenant account", "error", err)
		return nil, fmt.Errorf("failed to load tenant account: %w", err)
	}
	return tenantAccountToEntity(&model)
}

func (r *TenantRepositoryImpl) Save(ctx context.Context, account *tenant.Account) error {
	model, err := tenantAccountFromEntity(account)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if apperrors.IsDuplicateKeyError(err) {
			return apperrors.NewConflictError("tenant account already exists")
		}
		r.logger.Errorw("failed to save tenant account", "tenant_id", account.TenantID(), "error", err)
		return fmt.Errorf("failed to save tenant account: %w", err)
	}
	if err := account.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set account ID: %w", err)
	}
	r.logger.Infow("tenant account created", "tenant_id", account.TenantID())
	return nil
}

func (r *TenantRepositoryImpl) Update(ctx context.Context, account *tenant.Account) error {
	model, err := tenantAccountFromEntity(account)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&models.TenantAccountModel{}).
		Where("id = ?", account.ID()).
		Updates(map[string]any{
			"status":           model.Status,
			"plan":             model.Plan,
			"features_enabled": model.FeaturesEnabled,
			"last_synced_at":   model.LastSyncedAt,
			"updated_at":       model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update tenant account", "tenant_id", account.TenantID(), "error", result.Error)
		return fmt.Errorf("failed to update tenant account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("tenant account not found")
	}
	return nil
}

func (r *TenantRepositoryImpl) Delete(ctx context.Context) error {
	if err := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.TenantAccountModel{}).Error; err != nil {
		r.logger.Errorw("failed to delete tenant account", "error", err)
		return fmt.Errorf("failed to delete tenant account: %w", err)
	}
	r.logger.Infow("tenant account cleared")
	return nil
}

func tenantAccountToEntity(m *models.TenantAccountModel) (*tenant.Account, error) {
	var features []string
	if len(m.FeaturesEnabled) > 0 {
		if err := json.Unmarshal(m.FeaturesEnabled, &features); err != nil {
			return nil, fmt.Errorf("failed to decode features: %w", err)
		}
	}
	return tenant.ReconstructAccount(
		m.ID,
		m.TenantID,
		m.APIKeyCipher,
		tenant.SubscriptionStatus(m.Status),
		tenant.Plan(m.Plan),
		features,
		m.LastSyncedAt,
		m.CreatedAt,
		m.UpdatedAt,
	)
}

func tenantAccountFromEntity(a *tenant.Account) (*models.TenantAccountModel, error) {
	features, err := json.Marshal(a.FeaturesEnabled())
	if err != nil {
		return nil, fmt.Errorf("failed to encode features: %w", err)
	}
	return &models.TenantAccountModel{
		ID:              a.ID(),
		TenantID:        a.TenantID(),
		APIKeyCipher:    a.APIKeyCipher(),
		Status:          string(a.Status()),
		Plan:            string(a.Plan()),
		FeaturesEnabled: features,
		LastSyncedAt:    a.LastSyncedAt(),
		CreatedAt:       a.CreatedAt(),
		UpdatedAt:       a.UpdatedAt(),
	}, nil
}
