package domain

import "time"

// Department represents a municipal department issues are routed to.
type Department struct {
	ID        string
	Code      string
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
