// Package events adapts the messaging publisher to the event sinks the
// domain services depend on. Publishing is best-effort: a broker outage is
// logged and the request proceeds.
package events

import (
	"context"

	employeerepo "github.com/staffdesk/staffdesk-backend/internal/employee/repository"
	leaverepo "github.com/staffdesk/staffdesk-backend/internal/leave/repository"
	"github.com/staffdesk/staffdesk-backend/pkg/logger"
	"github.com/staffdesk/staffdesk-backend/pkg/messaging"
)

// Publisher publishes domain events to the office events exchange
type Publisher struct {
	publisher *messaging.Publisher
	log       *logger.Logger
}

// NewPublisher creates a new domain event publisher
func NewPublisher(publisher *messaging.Publisher, log *logger.Logger) *Publisher {
	return &Publisher{
		publisher: publisher,
		log:       log.WithComponent("events"),
	}
}

func (p *Publisher) publish(ctx context.Context, eventType string, data interface{}) {
	if err := p.publisher.Publish(ctx, eventType, data); err != nil {
		p.log.Warn().Err(err).Str("event_type", eventType).Msg("failed to publish event")
	}
}

// UserRegistered publishes an office.user.registered event
func (p *Publisher) UserRegistered(ctx context.Context, userID, email, role string) {
	p.publish(ctx, messaging.EventUserRegistered, messaging.UserRegisteredEvent{
		UserID: userID,
		Email:  email,
		Role:   role,
	})
}

// EmployeeCreated publishes an office.employee.created event
func (p *Publisher) EmployeeCreated(ctx context.Context, emp *employeerepo.Employee, hasCredentials bool) {
	p.publish(ctx, messaging.EventEmployeeCreated, messaging.EmployeeCreatedEvent{
		EmployeeID:     emp.ID,
		EmployeeNumber: emp.EmployeeNumber,
		Name:           emp.Name,
		Department:     emp.Department,
		HasCredentials: hasCredentials,
	})
}

// EmployeeUpdated publishes an office.employee.updated event
func (p *Publisher) EmployeeUpdated(ctx context.Context, employeeID string, fields []string) {
	p.publish(ctx, messaging.EventEmployeeUpdated, messaging.EmployeeUpdatedEvent{
		EmployeeID: employeeID,
		Fields:     fields,
	})
}

// EmployeeDeleted publishes an office.employee.deleted event
func (p *Publisher) EmployeeDeleted(ctx context.Context, employeeID string) {
	p.publish(ctx, messaging.EventEmployeeDeleted, messaging.EmployeeDeletedEvent{
		EmployeeID: employeeID,
	})
}

// LeaveRequested publishes an office.leave.requested event
func (p *Publisher) LeaveRequested(ctx context.Context, leave *leaverepo.Leave) {
	p.publish(ctx, messaging.EventLeaveRequested, messaging.LeaveRequestedEvent{
		LeaveID:    leave.ID,
		EmployeeID: leave.EmployeeID,
		Type:       leave.Type,
		StartDate:  leave.StartDate,
		EndDate:    leave.EndDate,
		Days:       leave.Days,
	})
}

// LeaveReviewed publishes an office.leave.approved or office.leave.rejected event
func (p *Publisher) LeaveReviewed(ctx context.Context, leave *leaverepo.Leave, status, approverID string) {
	eventType := messaging.EventLeaveApproved
	if status == leaverepo.StatusRejected {
		eventType = messaging.EventLeaveRejected
	}

	p.publish(ctx, eventType, messaging.LeaveReviewedEvent{
		LeaveID:    leave.ID,
		EmployeeID: leave.EmployeeID,
		Status:     status,
		ApprovedBy: approverID,
	})
}

// LeaveDeleted publishes an office.leave.deleted event
func (p *Publisher) LeaveDeleted(ctx context.Context, leaveID string) {
	p.publish(ctx, messaging.EventLeaveDeleted, messaging.LeaveDeletedEvent{
		LeaveID: leaveID,
	})
}
