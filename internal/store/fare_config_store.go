package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trip_tracker/internal/apperr"
	"trip_tracker/internal/models"
)

type FareConfigStore struct {
	db *gorm.DB
}

func NewFareConfigStore(db *gorm.DB) *FareConfigStore {
	return &FareConfigStore{db: db}
}

func (s *FareConfigStore) List(ctx context.Context, includeInactive bool) ([]models.FareConfig, error) {
	var cfgs []models.FareConfig
	q := s.db.WithContext(ctx).Order("vehicle_type asc, is_active desc, updated_at desc, id desc")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&cfgs).Error; err != nil {
		return nil, classify("list fare configs", err)
	}
	return cfgs, nil
}

func (s *FareConfigStore) Get(ctx context.Context, id uint) (*models.FareConfig, error) {
	var cfg models.FareConfig
	if err := s.db.WithContext(ctx).First(&cfg, id).Error; err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("fare config %d: %w", id, apperr.ErrNotFound)
		}
		return nil, classify("get fare config", err)
	}
	return &cfg, nil
}

func (s *FareConfigStore) GetActive(ctx context.Context, vt models.VehicleType) (*models.FareConfig, error) {
	var cfg models.FareConfig
	err := s.db.WithContext(ctx).
		Where("vehicle_type = ? AND is_active = ?", vt, true).
		Take(&cfg).Error
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("%s: %w", vt, apperr.ErrNoActiveConfig)
		}
		return nil, classify("get active fare config", err)
	}
	return &cfg, nil
}

// Upsert stores cfg as the new current config of its vehicle type. The
// previous active row is deactivated, not overwritten.
func (s *FareConfigStore) Upsert(ctx context.Context, cfg *models.FareConfig) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current []models.FareConfig
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("vehicle_type = ? AND is_active = ?", cfg.VehicleType, true).
			Find(&current).Error
		if err != nil {
			return err
		}
		if len(current) > 0 {
			err = tx.Model(&models.FareConfig{}).
				Where("vehicle_type = ? AND is_active = ?", cfg.VehicleType, true).
				Update("is_active", false).Error
			if err != nil {
				return err
			}
		}
		cfg.ID = 0
		cfg.IsActive = true
		cfg.CreatedAt, cfg.UpdatedAt = time.Time{}, time.Time{}
		return tx.Create(cfg).Error
	})
	return classify("upsert fare config", err)
}

// Toggle flips is_active. Activating a row deactivates the other active row
// of the same vehicle type.
func (s *FareConfigStore) Toggle(ctx context.Context, id uint) (*models.FareConfig, error) {
	var cfg models.FareConfig
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&cfg, id).Error; err != nil {
			if notFound(err) {
				return fmt.Errorf("fare config %d: %w", id, apperr.ErrNotFound)
			}
			return err
		}
		if !cfg.IsActive {
			err := tx.Model(&models.FareConfig{}).
				Where("vehicle_type = ? AND is_active = ? AND id <> ?", cfg.VehicleType, true, cfg.ID).
				Update("is_active", false).Error
			if err != nil {
				return err
			}
		}
		cfg.IsActive = !cfg.IsActive
		return tx.Model(&cfg).Update("is_active", cfg.IsActive).Error
	})
	if err != nil {
		return nil, classify("toggle fare config", err)
	}
	return &cfg, nil
}

func (s *FareConfigStore) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.FareConfig{}, id)
	if res.Error != nil {
		return classify("delete fare config", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("fare config %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// InitializeDefaults inserts each default whose vehicle type has no active
// row and returns the rows it created. The partial unique index on active
// rows turns a concurrent duplicate into a no-op.
func (s *FareConfigStore) InitializeDefaults(ctx context.Context, defaults []models.FareConfig) ([]models.FareConfig, error) {
	var created []models.FareConfig
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, d := range defaults {
			var n int64
			err := tx.Model(&models.FareConfig{}).
				Where("vehicle_type = ? AND is_active = ?", d.VehicleType, true).
				Count(&n).Error
			if err != nil {
				return err
			}
			if n > 0 {
				continue
			}
			row := d
			row.ID = 0
			row.IsActive = true
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 1 {
				created = append(created, row)
			}
		}
		return nil
	})
	if err != nil {
		return nil, classify("initialize default fare configs", err)
	}
	return created, nil
}
