package products

import (
	"time"

	"storefront-app/internal/app/catalog"
	"storefront-app/internal/domain/access"
)

type VerdictDTO struct {
	State       string            `json:"state"` // open|tier_locked|time_locked
	RemainingMS int64             `json:"remaining_ms,omitempty"`
	Countdown   *access.Countdown `json:"countdown,omitempty"`
}

// ProductDTO is the rendered product. Profit data, supplier link and video
// are only filled when the verdict is open.
type ProductDTO struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	Images       []string   `json:"images"`
	SellingPrice float64    `json:"selling_price"`
	Categories   []string   `json:"categories"`
	IsTopProduct bool       `json:"is_top_product"`
	Views        int64      `json:"views"`
	ReleaseAt    *time.Time `json:"release_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`

	Position   *int       `json:"position,omitempty"`
	AutoLocked bool       `json:"auto_locked"`
	Access     VerdictDTO `json:"access"`

	ProductCost  *float64 `json:"product_cost,omitempty"`
	ProfitMargin *float64 `json:"profit_margin,omitempty"`
	SupplierURL  *string  `json:"supplier_url,omitempty"`
	VideoURL     *string  `json:"video_url,omitempty"`
}

type ListResponse struct {
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	Total      int64        `json:"total"`
	TotalPages int          `json:"total_pages"`
	Products   []ProductDTO `json:"products"`
}

type CategoryDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type TopProductDTO struct {
	Rank    int        `json:"rank"`
	Product ProductDTO `json:"product"`
}

type TickDTO struct {
	ProductID   string           `json:"product_id"`
	RemainingMS int64            `json:"remaining_ms"`
	Countdown   access.Countdown `json:"countdown"`
}

func ToVerdictDTO(v access.Verdict) VerdictDTO {
	dto := VerdictDTO{State: string(v.Kind)}
	if v.Kind == access.TimeLocked {
		cd := access.FormatCountdown(v.Remaining)
		dto.RemainingMS = v.Remaining.Milliseconds()
		dto.Countdown = &cd
	}
	return dto
}

func ToProductDTO(ap catalog.AnnotatedProduct) ProductDTO {
	p := ap.Product

	images := p.Images
	if images == nil {
		images = []string{}
	}
	cats := make([]string, 0, len(p.Categories))
	for _, c := range p.Categories {
		cats = append(cats, c.Name)
	}

	dto := ProductDTO{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Images:       images,
		SellingPrice: p.SellingPrice,
		Categories:   cats,
		IsTopProduct: p.IsTopProduct,
		Views:        p.Views,
		ReleaseAt:    p.ReleaseAt,
		CreatedAt:    p.CreatedAt,
		AutoLocked:   ap.AutoLocked,
		Access:       ToVerdictDTO(ap.Verdict),
	}
	if ap.Index >= 0 {
		idx := ap.Index
		dto.Position = &idx
	}

	if ap.Verdict.IsOpen() {
		cost, margin := p.ProductCost, p.ProfitMargin
		supplier, video := p.SupplierURL, p.VideoURL
		dto.ProductCost = &cost
		dto.ProfitMargin = &margin
		dto.SupplierURL = &supplier
		dto.VideoURL = &video
	}
	return dto
}

func toTickDTO(tk catalog.Tick) TickDTO {
	return TickDTO{
		ProductID:   tk.ProductID,
		RemainingMS: tk.Remaining.Milliseconds(),
		Countdown:   access.FormatCountdown(tk.Remaining),
	}
}
