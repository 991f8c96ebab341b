package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-app/internal/domain/products"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrIndexResolution = errors.New("index resolution failed")
)

const (
	recencyOrder = "created_at DESC, id DESC"
	topOrder     = "priority DESC, created_at DESC, id DESC"
)

// Store is the data the gating engine reads. Listing and counting must use
// the same (created_at desc, id desc) order.
type Store interface {
	ListRecent(ctx context.Context, offset, limit int) ([]products.Product, error)
	GetByID(ctx context.Context, id string) (*products.Product, error)
	CountNewerThan(ctx context.Context, p products.Product) (int64, error)
}

// GormStore is the gorm-backed Store plus the extra catalog queries the
// API needs.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) productsQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&products.Product{})
}

func (s *GormStore) ListRecent(ctx context.Context, offset, limit int) ([]products.Product, error) {
	var out []products.Product
	err := s.productsQuery(ctx).
		Preload("Categories").
		Order(recencyOrder).
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListFiltered returns one window of the rows matching f, in f's order.
func (s *GormStore) ListFiltered(ctx context.Context, f Filter, offset, limit int) ([]products.Product, error) {
	var out []products.Product
	err := s.productsQuery(ctx).
		Scopes(f.where).
		Preload("Categories").
		Order(f.Sort.order()).
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (s *GormStore) CountFiltered(ctx context.Context, f Filter) (int64, error) {
	var n int64
	err := s.productsQuery(ctx).Scopes(f.where).Count(&n).Error
	return n, err
}

func (s *GormStore) ListCategories(ctx context.Context) ([]products.Category, error) {
	var out []products.Category
	err := s.db.WithContext(ctx).Order("name ASC").Find(&out).Error
	return out, err
}

// RecordView bumps a product's view counter without touching updated_at.
func (s *GormStore) RecordView(ctx context.Context, id string) error {
	return s.productsQuery(ctx).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
}

func (s *GormStore) GetByID(ctx context.Context, id string) (*products.Product, error) {
	var p products.Product
	err := s.productsQuery(ctx).Preload("Categories").Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CountNewerThan counts the products ahead of p in recency order, which is
// p's absolute index.
func (s *GormStore) CountNewerThan(ctx context.Context, p products.Product) (int64, error) {
	var n int64
	err := s.productsQuery(ctx).
		Where("created_at > ? OR (created_at = ? AND id > ?)", p.CreatedAt, p.CreatedAt, p.ID).
		Count(&n).Error
	return n, err
}

func (s *GormStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.productsQuery(ctx).Count(&n).Error
	return n, err
}

func (s *GormStore) ListTop(ctx context.Context) ([]products.Product, error) {
	var out []products.Product
	err := s.productsQuery(ctx).
		Where("is_top_product = ?", true).
		Order(topOrder).
		Find(&out).Error
	return out, err
}

// NextRelease returns the soonest release strictly after now, if any.
func (s *GormStore) NextRelease(ctx context.Context, now time.Time) (*time.Time, error) {
	var p products.Product
	err := s.productsQuery(ctx).
		Where("release_at > ?", now.UTC()).
		Order("release_at ASC").
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p.ReleaseAt, nil
}

func (s *GormStore) SavedProductIDs(ctx context.Context, userID uint) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&products.SavedProduct{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Pluck("product_id", &ids).Error
	return ids, err
}

func (s *GormStore) Save(ctx context.Context, userID uint, productID string) error {
	if _, err := s.GetByID(ctx, productID); err != nil {
		return err
	}
	row := products.SavedProduct{UserID: userID, ProductID: productID}
	return s.db.WithContext(ctx).
		Omit(clause.Associations).
		Where(products.SavedProduct{UserID: userID, ProductID: productID}).
		FirstOrCreate(&row).Error
}

func (s *GormStore) Unsave(ctx context.Context, userID uint, productID string) error {
	return s.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&products.SavedProduct{}).Error
}

func (s *GormStore) Create(ctx context.Context, p *products.Product) error {
	return s.db.WithContext(ctx).Create(p).Error
}

// Update writes every gating and content field, including zero values and
// a cleared release time.
func (s *GormStore) Update(ctx context.Context, p *products.Product) error {
	res := s.db.WithContext(ctx).Model(&products.Product{ID: p.ID}).
		Select("name", "description", "images", "selling_price", "product_cost", "profit_margin",
			"supplier_url", "video_url", "is_locked", "is_top_product", "priority", "release_at", "updated_at").
		Updates(p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// SetCategories replaces a product's categories by name, creating the
// ones that do not exist yet.
func (s *GormStore) SetCategories(ctx context.Context, productID string, names []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cats := make([]products.Category, 0, len(names))
		seen := make(map[string]bool, len(names))
		for _, n := range names {
			n = strings.TrimSpace(n)
			if n == "" || seen[n] {
				continue
			}
			seen[n] = true

			var cat products.Category
			if err := tx.Where(products.Category{Name: n}).FirstOrCreate(&cat).Error; err != nil {
				return fmt.Errorf("category %q: %w", n, err)
			}
			cats = append(cats, cat)
		}
		return tx.Model(&products.Product{ID: productID}).Association("Categories").Replace(cats)
	})
}

func (s *GormStore) SetLocked(ctx context.Context, id string, locked bool) error {
	res := s.productsQuery(ctx).Where("id = ?", id).Update("is_locked", locked)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&products.SavedProduct{}).Error; err != nil {
			return fmt.Errorf("delete saved rows: %w", err)
		}
		p := products.Product{ID: id}
		if err := tx.Model(&p).Association("Categories").Clear(); err != nil {
			return fmt.Errorf("clear categories: %w", err)
		}
		res := tx.Delete(&p)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrProductNotFound
		}
		return nil
	})
}
