// Package customers implements the customer directory. Phone number is
// the natural key: names collide between neighbours, numbers do not.
package customers

import "time"

// Customer is a directory record. Created once, corrected in place,
// never deleted.
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address,omitempty"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}
