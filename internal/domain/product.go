package domain

import "time"

// Product is a catalog item. Products carry no owner; only admins may
// write them, everyone may read them.
type Product struct {
	ID          int64   `json:"id,string" gorm:"primaryKey"`
	Sku         string  `gorm:"uniqueIndex;size:64" json:"sku"`
	ProductType string  `gorm:"size:128" json:"product_type"`
	Description string  `gorm:"size:1024" json:"description"`
	Category    string  `gorm:"index;size:128" json:"category"`
	Subcategory string  `gorm:"index;size:128" json:"subcategory"`
	Price       float64 `json:"price"`

	// Specification fields, kept as free text the way the source catalog
	// sheets deliver them
	Capacity               string `json:"capacity"`
	Doors                  string `json:"doors"`
	Amperage               string `json:"amperage"`
	Dimensions             string `json:"dimensions"`
	DimensionsMetric       string `json:"dimensions_metric"`
	Weight                 string `json:"weight"`
	WeightMetric           string `json:"weight_metric"`
	TemperatureRange       string `json:"temperature_range"`
	TemperatureRangeMetric string `json:"temperature_range_metric"`
	Voltage                string `json:"voltage"`
	Phase                  string `json:"phase"`
	Frequency              string `json:"frequency"`
	PlugType               string `json:"plug_type"`
	Refrigerant            string `json:"refrigerant"`
	Compressor             string `json:"compressor"`
	Shelves                string `json:"shelves"`
	Features               string `gorm:"type:text" json:"features"`
	Certifications         string `json:"certifications"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Product) TableName() string { return "products" }

func (p Product) RecordID() int64            { return p.ID }
func (p Product) RecordOwner() int64         { return 0 }
func (p Product) RecordUpdatedAt() time.Time { return p.UpdatedAt }
