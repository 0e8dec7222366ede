package credentials

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dm-vev/adamant/server/wire"
)

// FetchInventory runs the one-shot grouped inventory query from §6 for the
// given inventory id and returns it as wire-ready ItemStacks.
func FetchInventory(ctx context.Context, pool *pgxpool.Pool, inventoryID int64) ([]wire.ItemStack, error) {
	rows, err := pool.Query(ctx,
		`SELECT item, COUNT(*) FROM items JOIN inventory_items ON id = item_id WHERE inventory_id = $1 GROUP BY item`,
		inventoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("credentials: fetch inventory: %w", err)
	}
	defer rows.Close()

	var items []wire.ItemStack
	for rows.Next() {
		var stack wire.ItemStack
		if err := rows.Scan(&stack.Item, &stack.Quantity); err != nil {
			return nil, fmt.Errorf("credentials: scan inventory row: %w", err)
		}
		items = append(items, stack)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("credentials: iterate inventory rows: %w", err)
	}
	return items, nil
}
