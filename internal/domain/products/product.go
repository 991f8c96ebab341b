package products

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Product struct {
	ID string `gorm:"type:varchar(36);primaryKey" json:"id"`

	Name        string   `gorm:"not null" json:"name"`
	Description string   `json:"description"`
	Images      []string `gorm:"serializer:json" json:"images"`

	SellingPrice float64 `json:"selling_price"`
	ProductCost  float64 `json:"product_cost"`
	ProfitMargin float64 `json:"profit_margin"`
	SupplierURL  string  `gorm:"column:supplier_url" json:"supplier_url"`
	VideoURL     string  `gorm:"column:video_url" json:"video_url"`

	// Detail views, the "trending" sort key.
	Views int64 `gorm:"not null;default:0" json:"views"`

	// Gating signals. The engine only reads these.
	IsLocked     bool       `gorm:"column:is_locked;not null;default:false" json:"is_locked"`
	IsTopProduct bool       `gorm:"column:is_top_product;not null;default:false;index" json:"is_top_product"`
	Priority     int        `gorm:"not null;default:0" json:"priority"`
	ReleaseAt    *time.Time `gorm:"column:release_at;index" json:"release_at"`

	Categories []Category `gorm:"many2many:product_categories;" json:"categories,omitempty"`

	// (created_at desc, id desc) is the catalog's recency order.
	CreatedAt time.Time `gorm:"index:idx_products_recency,priority:1" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	// one timezone and precision so string and timestamp columns compare the same way
	p.CreatedAt = p.CreatedAt.UTC().Truncate(time.Microsecond)
	return nil
}

type Category struct {
	ID   string `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name string `gorm:"not null;uniqueIndex:idx_categories_name" json:"name"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type SavedProduct struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false"`
	ProductID string    `gorm:"type:varchar(36);primaryKey"`
	Product   Product   `gorm:"constraint:OnDelete:CASCADE;"`
	CreatedAt time.Time `json:"created_at"`
}
