package domain

import "time"

// PetType indicates which kind of pet a product is intended for.
type PetType string

const (
	PetTypeDog  PetType = "perro"
	PetTypeCat  PetType = "gato"
	PetTypeBoth PetType = "ambos"
)

// Product represents a product in the catalog. IDs are stable positive
// integers assigned by the repository; a product referenced by a
// historical order is never deleted.
type Product struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	PetType     PetType   `json:"petType"`
	Price       int       `json:"price"`
	Stock       int       `json:"stock"`
	IsOnSale    bool      `json:"isOnSale,omitempty"`
	SalePrice   int       `json:"salePrice,omitempty"`
	Exclusive   bool      `json:"exclusive,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
