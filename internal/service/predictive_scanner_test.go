package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetops-service/internal/fleet"
	"fleetops-service/internal/metrics"
	"fleetops-service/internal/model"
)

func TestPredictiveScanOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	v := env.register(t, "NFX-100")

	worn := 55
	res, err := env.service.Transition(ctx, env.manager, fleet.TransitionRequest{
		EntityType: model.EntityVehicle,
		Action:     fleet.ActionRegister,
		Payload: fleet.Payload{Vehicle: &fleet.VehicleDraft{
			VehicleNumber: "NFX-101",
			Model:         "Vito",
			Manufacturer:  "Mercedes",
			BodyType:      model.BodyTypeVan,
			Capacity:      8,
			HealthScore:   &worn,
		}},
	})
	require.NoError(t, err)
	wornID := res.Vehicles[0].ID

	scanner := NewPredictiveScanner(env.store, env.engine, fleet.DefaultThresholds(), time.Minute, metrics.New(), zerolog.Nop())

	raised, err := scanner.ScanOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, raised)

	snap, err := env.store.Snapshot(ctx)
	require.NoError(t, err)
	tickets := snap.OpenTickets(wornID)
	require.Len(t, tickets, 1)
	assert.True(t, tickets[0].Predictive)
	assert.Equal(t, model.TicketPriorityHigh, tickets[0].Priority)
	healthy, _ := snap.Vehicle(v.ID)
	assert.Equal(t, model.VehicleStatusAvailable, healthy.Status)

	raised, err = scanner.ScanOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, raised)

	alerts, err := env.service.View(ctx, env.manager, fleet.AggregationRequest{Kind: fleet.AggregationMaintenanceAlerts})
	require.NoError(t, err)
	require.Len(t, alerts.([]model.MaintenanceTicket), 1)

	logs, err := env.store.StatusLogs(ctx, model.EntityMaintenance, tickets[0].ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.UserRoleSystem, logs[0].ActorRole)
	assert.Nil(t, logs[0].ChangedBy)
}

func TestPredictiveRunStopsWithContext(t *testing.T) {
	env := newTestEnv(t)
	scanner := NewPredictiveScanner(env.store, env.engine, fleet.DefaultThresholds(), time.Hour, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		scanner.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scanner did not stop")
	}
}

func TestPredictiveRunDisabled(t *testing.T) {
	env := newTestEnv(t)
	scanner := NewPredictiveScanner(env.store, env.engine, fleet.DefaultThresholds(), 0, nil, zerolog.Nop())
	scanner.Run(context.Background())
}
