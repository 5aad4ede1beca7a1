package models

import "time"

// Listing is an item offered for sale by a seller.
type Listing struct {
	ID          int       `json:"id"`
	Item        string    `json:"item"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	ImageFile   string    `json:"image_file"`
	PostedAt    time.Time `json:"posted_at"`
	SellerID    int       `json:"seller_id"`
	Seller      string    `json:"seller"` // seller username, filled on reads
}
