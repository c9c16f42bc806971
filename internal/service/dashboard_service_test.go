package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hosteldesk/facility-api/internal/models"
)

type mockDashboardComplaints struct {
	total     int
	byStatus  map[models.ComplaintStatus]int
	callCount int
}

func (m *mockDashboardComplaints) CountAll(ctx context.Context) (int, error) {
	m.callCount++
	return m.total, nil
}

func (m *mockDashboardComplaints) CountByStatus(ctx context.Context, status models.ComplaintStatus) (int, error) {
	return m.byStatus[status], nil
}

type mockDashboardTickets struct {
	byStatus map[models.TicketStatus]int
}

func (m *mockDashboardTickets) CountByStatus(ctx context.Context, status models.TicketStatus) (int, error) {
	return m.byStatus[status], nil
}

func TestDashboardServiceStats(t *testing.T) {
	complaints := &mockDashboardComplaints{
		total: 12,
		byStatus: map[models.ComplaintStatus]int{
			models.ComplaintSubmitted: 4,
			models.ComplaintCompleted: 6,
		},
	}
	tickets := &mockDashboardTickets{byStatus: map[models.TicketStatus]int{
		models.TicketOpen:     2,
		models.TicketResolved: 5,
	}}

	svc := NewDashboardService(complaints, tickets, nil, 0, zap.NewNop())
	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, stats.TotalComplaints)
	assert.Equal(t, 4, stats.PendingComplaints)
	assert.Equal(t, 6, stats.CompletedComplaints)
	assert.Equal(t, 2, stats.OpenTickets)
	assert.Equal(t, 5, stats.ResolvedTickets)
}

func TestDashboardServiceStatsFreshEachCall(t *testing.T) {
	complaints := &mockDashboardComplaints{total: 1, byStatus: map[models.ComplaintStatus]int{}}
	tickets := &mockDashboardTickets{byStatus: map[models.TicketStatus]int{}}
	svc := NewDashboardService(complaints, tickets, nil, 0, zap.NewNop())

	_, err := svc.Stats(context.Background())
	require.NoError(t, err)
	complaints.total = 2
	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalComplaints)
	assert.Equal(t, 2, complaints.callCount)
}
