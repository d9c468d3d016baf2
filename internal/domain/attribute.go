package domain

// Color is a product attribute managed in the admin
type Color struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
	Hex  string `json:"hex,omitempty"`
	Timestamps
}

// Size is a product attribute managed in the admin
type Size struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
	Timestamps
}
