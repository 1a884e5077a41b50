package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"salesdesk/db"
	"salesdesk/models"
)

// ClientRepository handles database operations for clients
type ClientRepository struct{}

// NewClientRepository creates a new ClientRepository
func NewClientRepository() *ClientRepository {
	return &ClientRepository{}
}

// Ensure ClientRepository implements ClientRepositoryInterface
var _ ClientRepositoryInterface = (*ClientRepository)(nil)

// GetClient retrieves a client by its identity number
func (r *ClientRepository) GetClient(ctx context.Context, id string) (*models.Client, error) {
	query := `
		SELECT id, name, email, phone, city
		FROM clients
		WHERE id = $1
	`

	var client models.Client
	var email, phone, city sql.NullString
	err := db.DB.QueryRowContext(ctx, query, id).Scan(&client.ID, &client.Name, &email, &phone, &city)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &models.BackendError{Kind: models.ErrNotFound, Message: fmt.Sprintf("client %s not found", id)}
		}
		return nil, fmt.Errorf("failed to fetch client: %w", err)
	}

	client.Email = email.String
	client.Phone = phone.String
	client.City = city.String
	return &client, nil
}

// ListClients retrieves every client ordered by name
func (r *ClientRepository) ListClients(ctx context.Context) ([]models.Client, error) {
	rows, err := db.DB.QueryContext(ctx, `SELECT id, name, email, phone, city FROM clients ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch clients: %w", err)
	}
	defer rows.Close()

	clients := []models.Client{}
	for rows.Next() {
		var c models.Client
		var email, phone, city sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &email, &phone, &city); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		c.Email = email.String
		c.Phone = phone.String
		c.City = city.String
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clients: %w", err)
	}
	return clients, nil
}
