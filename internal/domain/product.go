package domain

// Product is a read-only snapshot of a catalog item. Prices are held in the
// currency's minor unit (paise for INR) to keep arithmetic exact.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       int64    `json:"price"`
	Currency    string   `json:"currency"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	Category    string   `json:"category,omitempty"`
	Stock       int      `json:"stock"`
	Gallery     []string `json:"gallery,omitempty"`
}
