package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Identity events
	EventUserRegistered = "office.user.registered"
	EventUserDeleted    = "office.user.deleted"

	// Employee events
	EventEmployeeCreated = "office.employee.created"
	EventEmployeeUpdated = "office.employee.updated"
	EventEmployeeDeleted = "office.employee.deleted"

	// Leave events
	EventLeaveRequested = "office.leave.requested"
	EventLeaveApproved  = "office.leave.approved"
	EventLeaveRejected  = "office.leave.rejected"
	EventLeaveDeleted   = "office.leave.deleted"
)

// ExchangeOfficeEvents is the topic exchange all events are published to
const ExchangeOfficeEvents = "staffdesk.events"

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// UserRegisteredEvent is published when a credential record is created
type UserRegisteredEvent struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// EmployeeCreatedEvent is published when an employee record is created
type EmployeeCreatedEvent struct {
	EmployeeID     string `json:"employee_id"`
	EmployeeNumber string `json:"employee_number"`
	Name           string `json:"name"`
	Department     string `json:"department"`
	HasCredentials bool   `json:"has_credentials"`
}

// EmployeeUpdatedEvent is published when an employee record is updated
type EmployeeUpdatedEvent struct {
	EmployeeID string   `json:"employee_id"`
	Fields     []string `json:"fields"` // Names of the fields that changed
}

// EmployeeDeletedEvent is published when an employee record is deleted
type EmployeeDeletedEvent struct {
	EmployeeID string `json:"employee_id"`
}

// LeaveRequestedEvent is published when a leave request is created
type LeaveRequestedEvent struct {
	LeaveID    string    `json:"leave_id"`
	EmployeeID string    `json:"employee_id"`
	Type       string    `json:"type"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Days       int       `json:"days"`
}

// LeaveReviewedEvent is published when a leave request is approved or rejected
type LeaveReviewedEvent struct {
	LeaveID    string `json:"leave_id"`
	EmployeeID string `json:"employee_id"`
	Status     string `json:"status"`
	ApprovedBy string `json:"approved_by"`
}

// LeaveDeletedEvent is published when a pending leave request is deleted
type LeaveDeletedEvent struct {
	LeaveID string `json:"leave_id"`
}
