package shipping

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestRepositoryLoadTable(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:shipping_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE TABLE shipping_rates (
		id TEXT PRIMARY KEY,
		country TEXT NOT NULL,
		state TEXT NOT NULL,
		city TEXT NOT NULL,
		price INTEGER NOT NULL
	)`).Error)
	require.NoError(t, db.Exec(`INSERT INTO shipping_rates (id, country, state, city, price) VALUES
		('6f1c2a34-0b1e-4c59-9b61-1a2b3c4d5e01', 'India', 'Kerala', 'Kochi', 80),
		('6f1c2a34-0b1e-4c59-9b61-1a2b3c4d5e02', 'India', 'Kerala', 'Kozhikode', 90),
		('6f1c2a34-0b1e-4c59-9b61-1a2b3c4d5e03', 'India', 'Goa', 'Panaji', 70)`).Error)

	table, err := NewRepository(db).LoadTable(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(80), table["India"]["Kerala"]["Kochi"])
	require.Len(t, table["India"], 2)
	require.Equal(t, int64(85), Cost("Munnar", "Kerala", "India", table))
}
