package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'vehicle_status') THEN
			CREATE TYPE vehicle_status AS ENUM ('AVAILABLE', 'IN_USE', 'MAINTENANCE', 'OUT_OF_SERVICE');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'vehicle_body_type') THEN
			CREATE TYPE vehicle_body_type AS ENUM ('SEDAN', 'SUV', 'VAN', 'TRUCK', 'BUS', 'BIKE');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'booking_status') THEN
			CREATE TYPE booking_status AS ENUM ('PENDING', 'CONFIRMED', 'IN_PROGRESS', 'COMPLETED', 'CANCELLED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'ticket_status') THEN
			CREATE TYPE ticket_status AS ENUM ('PENDING', 'IN_PROGRESS', 'RESOLVED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'ticket_priority') THEN
			CREATE TYPE ticket_priority AS ENUM ('LOW', 'MEDIUM', 'HIGH', 'CRITICAL');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS vehicles (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		vehicle_number VARCHAR(32) NOT NULL,
		model VARCHAR(64) NOT NULL,
		manufacturer VARCHAR(64) NOT NULL,
		body_type vehicle_body_type NOT NULL,
		capacity INTEGER NOT NULL CHECK (capacity >= 1),
		is_electric BOOLEAN NOT NULL DEFAULT FALSE,
		energy_level INTEGER NOT NULL CHECK (energy_level BETWEEN 0 AND 100),
		latitude DOUBLE PRECISION NOT NULL DEFAULT 0,
		longitude DOUBLE PRECISION NOT NULL DEFAULT 0,
		health_score INTEGER NOT NULL DEFAULT 100 CHECK (health_score BETWEEN 0 AND 100),
		status vehicle_status NOT NULL DEFAULT 'AVAILABLE',
		version BIGINT NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_vehicles_vehicle_number ON vehicles (UPPER(vehicle_number));`,
	`CREATE INDEX IF NOT EXISTS idx_vehicles_status ON vehicles (status);`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		vehicle_id UUID NOT NULL REFERENCES vehicles(id),
		customer_id UUID NOT NULL,
		start_time TIMESTAMPTZ NOT NULL,
		end_time TIMESTAMPTZ NOT NULL,
		total_price NUMERIC(12,2) NOT NULL DEFAULT 0,
		currency VARCHAR(3) NOT NULL DEFAULT 'USD',
		status booking_status NOT NULL DEFAULT 'PENDING',
		started_at TIMESTAMPTZ,
		completed_at TIMESTAMPTZ,
		version BIGINT NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (end_time >= start_time)
	);`,
	`ALTER TABLE bookings ADD COLUMN IF NOT EXISTS currency VARCHAR(3) NOT NULL DEFAULT 'USD';`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_vehicle_id ON bookings (vehicle_id);`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_customer_id ON bookings (customer_id);`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings (status);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_bookings_vehicle_holding
		ON bookings (vehicle_id)
		WHERE status IN ('CONFIRMED', 'IN_PROGRESS');`,
	`CREATE TABLE IF NOT EXISTS maintenance_tickets (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		vehicle_id UUID NOT NULL REFERENCES vehicles(id),
		issue_type VARCHAR(64) NOT NULL,
		description TEXT,
		priority ticket_priority NOT NULL DEFAULT 'MEDIUM',
		predictive BOOLEAN NOT NULL DEFAULT FALSE,
		status ticket_status NOT NULL DEFAULT 'PENDING',
		resolved_at TIMESTAMPTZ,
		version BIGINT NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_maintenance_tickets_vehicle_id ON maintenance_tickets (vehicle_id);`,
	`CREATE INDEX IF NOT EXISTS idx_maintenance_tickets_status ON maintenance_tickets (status);`,
	`CREATE TABLE IF NOT EXISTS fleet_status_log (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		entity_type VARCHAR(32) NOT NULL,
		entity_id UUID NOT NULL,
		action VARCHAR(64) NOT NULL,
		old_status VARCHAR(32),
		new_status VARCHAR(32) NOT NULL,
		changed_by UUID,
		actor_role VARCHAR(32) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_fleet_status_log_entity ON fleet_status_log (entity_type, entity_id, created_at);`,
	`CREATE SEQUENCE IF NOT EXISTS fleet_generation;`,
	`CREATE OR REPLACE FUNCTION trg_fleet_bump_generation()
	RETURNS TRIGGER AS $$
	BEGIN
		PERFORM nextval('fleet_generation');
		RETURN NULL;
	END;
	$$ LANGUAGE plpgsql;`,
	`DO $$
	DECLARE
		t TEXT;
	BEGIN
		FOREACH t IN ARRAY ARRAY['vehicles', 'bookings', 'maintenance_tickets'] LOOP
			IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_' || t || '_generation') THEN
				EXECUTE format(
					'CREATE TRIGGER %I AFTER INSERT OR UPDATE OR DELETE ON %I FOR EACH STATEMENT EXECUTE PROCEDURE trg_fleet_bump_generation()',
					'trg_' || t || '_generation', t);
			END IF;
		END LOOP;
	END
	$$;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
