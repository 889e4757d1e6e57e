package database

import (
	"strings"

	"gorm.io/gorm"

	"github.com/dineflow/reserva-backend/utils"
)

// EnsureIndexes creates the hot-path indexes AutoMigrate does not cover.
// Statements are idempotent where the dialect allows; on MySQL a duplicate
// index error is recognized and skipped so repeated boots stay quiet.
func EnsureIndexes(db *gorm.DB) error {
	type indexSpec struct {
		name string
		sql  map[string]string // dialect -> statement
	}

	specs := []indexSpec{
		{
			name: "idx_bookings_slot_status",
			sql: map[string]string{
				"mysql":  "CREATE INDEX idx_bookings_slot_status ON bookings (restaurant_id, date, start_time, status)",
				"sqlite": "CREATE INDEX IF NOT EXISTS idx_bookings_slot_status ON bookings (restaurant_id, date, start_time, status)",
			},
		},
		{
			name: "idx_booking_tables_instance",
			sql: map[string]string{
				"mysql":  "CREATE INDEX idx_booking_tables_instance ON booking_tables (table_instance_id, booking_id)",
				"sqlite": "CREATE INDEX IF NOT EXISTS idx_booking_tables_instance ON booking_tables (table_instance_id, booking_id)",
			},
		},
		{
			name: "idx_bookings_checkin_code",
			sql: map[string]string{
				"mysql":  "CREATE INDEX idx_bookings_checkin_code ON bookings (restaurant_id, checkin_code)",
				"sqlite": "CREATE INDEX IF NOT EXISTS idx_bookings_checkin_code ON bookings (restaurant_id, checkin_code)",
			},
		},
	}

	dialect := db.Dialector.Name()
	for _, spec := range specs {
		stmt, ok := spec.sql[dialect]
		if !ok {
			utils.InfoLogger.Printf("index %s: no statement for dialect %s, skipping", spec.name, dialect)
			continue
		}
		if err := db.Exec(stmt).Error; err != nil {
			if isDuplicateIndex(err) {
				continue
			}
			utils.ErrorLogger.Printf("creating index %s: %v", spec.name, err)
			return err
		}
		utils.InfoLogger.Printf("index %s ensured", spec.name)
	}
	return nil
}

func isDuplicateIndex(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key name") ||
		strings.Contains(msg, "already exists")
}
