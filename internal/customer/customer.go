// Package customer is the customer service: a read-only customer directory whose records
// are visible to their owner and to customer managers.
package customer

import (
	"slices"
	"time"
)

// Customer is a customer record.
type Customer struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is an in-memory customer table.
type Store struct {
	customers []Customer
}

// NewStore creates a Store holding a copy of customers.
func NewStore(customers []Customer) *Store {
	return &Store{customers: slices.Clone(customers)}
}

// Get returns the customer with id.
func (s *Store) Get(id int) (Customer, bool) {
	for _, c := range s.customers {
		if c.ID == id {
			return c, true
		}
	}
	return Customer{}, false
}

// Len returns the number of customers.
func (s *Store) Len() int {
	return len(s.customers)
}

// Seed returns one customer per platform test user, created at createdAt.
func Seed(createdAt time.Time) []Customer {
	return []Customer{
		{ID: 1, Name: "Test UserUNV", Email: "testuserUNV@example.com", Phone: "+1234567891", CreatedAt: createdAt},
		{ID: 2, Name: "Test User", Email: "testuser@example.com", Phone: "+1234567892", CreatedAt: createdAt},
		{ID: 3, Name: "Admin User", Email: "adminuser@example.com", Phone: "+1234567893", CreatedAt: createdAt},
		{ID: 4, Name: "Test UserCM", Email: "testuserCM@example.com", Phone: "+1234567894", CreatedAt: createdAt},
		{ID: 5, Name: "Test UserPM", Email: "testuserPM@example.com", Phone: "+1234567895", CreatedAt: createdAt},
		{ID: 6, Name: "Test UserPCM", Email: "testuserPCM@example.com", Phone: "+1234567896", CreatedAt: createdAt},
		{ID: 7, Name: "John Doe", Email: "john.doe@example.com", Phone: "+1234567897", CreatedAt: createdAt},
		{ID: 8, Name: "Jane Smith", Email: "jane.smith@example.com", Phone: "+1234567898", CreatedAt: createdAt},
	}
}
