// Package store is the persistence layer for the domain registry. All
// operations are single-row or small-batch; no multi-statement transactions
// are used, so callers sequencing related writes (clearing one primary
// address before setting another) accept the degraded state a crash between
// the two writes can leave behind.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/mvxid/indexer/internal/metrics"
	"github.com/mvxid/indexer/internal/models"
	"gorm.io/gorm"
)

// defaultPageSize applies when a caller passes a non-positive page size
const defaultPageSize = 10

// Store provides access to the domain and profile tables
type Store struct {
	db *gorm.DB
}

// New creates a store over an open database handle
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("database connection is required")
	}
	return &Store{db: db}, nil
}

// CreateDomain inserts a new domain row
func (s *Store) CreateDomain(ctx context.Context, domain *models.Domain) error {
	if err := s.db.WithContext(ctx).Create(domain).Error; err != nil {
		metrics.RecordDatabaseOperation("insert", "failed")
		return fmt.Errorf("failed to create domain %s: %w", domain.Name, err)
	}
	metrics.RecordDatabaseOperation("insert", "success")
	return nil
}

// UpdateDomain saves a full domain row. Callers carry forward unchanged
// fields; this is a whole-row replace, not a partial patch.
func (s *Store) UpdateDomain(ctx context.Context, domain *models.Domain) error {
	if err := s.db.WithContext(ctx).Save(domain).Error; err != nil {
		metrics.RecordDatabaseOperation("update", "failed")
		return fmt.Errorf("failed to update domain %s: %w", domain.Name, err)
	}
	metrics.RecordDatabaseOperation("update", "success")
	return nil
}

// DeleteDomain removes a domain row by identity. Hard delete, so the name can
// be registered again later.
func (s *Store) DeleteDomain(ctx context.Context, domain *models.Domain) error {
	if err := s.db.WithContext(ctx).Unscoped().Delete(domain).Error; err != nil {
		metrics.RecordDatabaseOperation("delete", "failed")
		return fmt.Errorf("failed to delete domain %s: %w", domain.Name, err)
	}
	metrics.RecordDatabaseOperation("delete", "success")
	return nil
}

// DomainByName looks up a domain by its unique name. Returns nil without an
// error when the name is unknown.
func (s *Store) DomainByName(ctx context.Context, name string) (*models.Domain, error) {
	var domain models.Domain
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&domain).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up domain %s: %w", name, err)
	}
	return &domain, nil
}

// DomainByTxHash looks up the domain last mutated by the given transaction.
// The ingestion pipeline uses this as its replay guard.
func (s *Store) DomainByTxHash(ctx context.Context, txHash string) (*models.Domain, error) {
	var domain models.Domain
	err := s.db.WithContext(ctx).Where("tx_hash = ?", txHash).First(&domain).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up domain by tx hash %s: %w", txHash, err)
	}
	return &domain, nil
}

// DomainWithPrimary finds the domain currently flagged as the owner's primary
// identity, if any
func (s *Store) DomainWithPrimary(ctx context.Context, ownerAddress string) (*models.Domain, error) {
	var domain models.Domain
	err := s.db.WithContext(ctx).
		Where("owner_address = ? AND primary_address IS NOT NULL", ownerAddress).
		First(&domain).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up primary domain for %s: %w", ownerAddress, err)
	}
	return &domain, nil
}

// Domains lists domains filtered by the subdomain flag, newest first, with
// the total row count for the filter
func (s *Store) Domains(ctx context.Context, isSubdomain bool, page, size int) ([]models.Domain, int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.Domain{}).
		Where("is_subdomain = ?", isSubdomain).
		Count(&total).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count domains: %w", err)
	}

	var domains []models.Domain
	err = s.db.WithContext(ctx).
		Where("is_subdomain = ?", isSubdomain).
		Order("id DESC").
		Offset(skipCount(page, size)).
		Limit(limitCount(size)).
		Find(&domains).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list domains: %w", err)
	}
	return domains, total, nil
}

// DomainsByOwner lists an account's domains filtered by the subdomain flag,
// with the total row count for the filter
func (s *Store) DomainsByOwner(ctx context.Context, ownerAddress string, isSubdomain bool, page, size int) ([]models.Domain, int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.Domain{}).
		Where("owner_address = ? AND is_subdomain = ?", ownerAddress, isSubdomain).
		Count(&total).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count domains for %s: %w", ownerAddress, err)
	}

	var domains []models.Domain
	err = s.db.WithContext(ctx).
		Where("owner_address = ? AND is_subdomain = ?", ownerAddress, isSubdomain).
		Offset(skipCount(page, size)).
		Limit(limitCount(size)).
		Find(&domains).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list domains for %s: %w", ownerAddress, err)
	}
	return domains, total, nil
}

// SubdomainsOf lists registered subdomains of a parent domain with the total
// count, matching every name ending in ".<parent>"
func (s *Store) SubdomainsOf(ctx context.Context, parentName string, page, size int) ([]models.Domain, int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.Domain{}).
		Where("name LIKE ?", "%."+parentName).
		Count(&total).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count subdomains of %s: %w", parentName, err)
	}

	var domains []models.Domain
	err = s.db.WithContext(ctx).
		Where("name LIKE ?", "%."+parentName).
		Offset(skipCount(page, size)).
		Limit(limitCount(size)).
		Find(&domains).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list subdomains of %s: %w", parentName, err)
	}
	return domains, total, nil
}

// AllSubdomainsOf returns every subdomain of a parent domain, used by the
// transfer cascade
func (s *Store) AllSubdomainsOf(ctx context.Context, parentName string) ([]models.Domain, error) {
	var domains []models.Domain
	err := s.db.WithContext(ctx).
		Where("name LIKE ?", "%."+parentName).
		Find(&domains).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list subdomains of %s: %w", parentName, err)
	}
	return domains, nil
}

// skipCount mirrors the read API's 1-based page offset convention
func skipCount(page, size int) int {
	if page <= 0 {
		return 0
	}
	return (page - 1) * limitCount(size)
}

func limitCount(size int) int {
	if size <= 0 {
		return defaultPageSize
	}
	return size
}
