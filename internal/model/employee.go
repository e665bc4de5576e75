package model

// Destination is a government office a complaint or employee is routed to.
// It is reference data owned by the backend.
type Destination struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// Employee mirrors the backend's employee resource.  Employees are created
// through the admin dashboard and never updated or deleted by the portal.
type Employee struct {
	ID            uint64       `json:"id"`
	Name          string       `json:"name"`
	NationalID    string       `json:"national_id"`
	Identifier    string       `json:"identifier"`
	DestinationID uint64       `json:"destination_id"`
	Destination   *Destination `json:"destination,omitempty"`
	CreatedAt     string       `json:"created_at,omitempty"`
	UpdatedAt     string       `json:"updated_at,omitempty"`
}
