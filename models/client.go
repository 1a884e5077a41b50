package models

// Client represents a customer. ID is the national identity number (cédula).
// Example:
// {
//   "id": "1032456789",
//   "name": "Juan Pérez",
//   "email": "juan@example.com",
//   "phone": "+57 300 000 0000",
//   "city": "Bogotá"
// }
type Client struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	City  string `json:"city,omitempty"`
}
