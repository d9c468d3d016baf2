package domain

type Product struct {
	ID          string  `json:"_id"`
	Title       string  `json:"title"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Description string  `json:"description,omitempty"` // HTML as edited in the admin
	Summary     string  `json:"-"`                     // Plain text extracted from Description when loaded
	Categories  []Ref   `json:"categories"`
	Colors      []Ref   `json:"colors"`
	Sizes       []Ref   `json:"sizes"`
	Timestamps
}
