package app

import "stockroom/internal/core"

// NodeListResult is returned by ListRoots and ListChildren.
type NodeListResult struct {
	Nodes []core.Node `json:"nodes"`
}

// PathResult is returned by GetPath: root-to-node sequence plus a joined
// display label ("Main Warehouse / Back Room / Pallet 1").
type PathResult struct {
	Nodes   []core.Node `json:"nodes"`
	Display string      `json:"display"`
}

// StockRow is one ledger entry decorated for display. Location is empty when
// the container ref no longer resolves; the raw ref remains authoritative.
type StockRow struct {
	Entry    core.StockEntry `json:"entry"`
	Location string          `json:"location,omitempty"`
}

// StockResult is returned by GetStock.
type StockResult struct {
	ProductID string     `json:"product_id"`
	Rows      []StockRow `json:"rows"`
}

// CommandResult is returned by InterpretStockCommand.
type CommandResult struct {
	Command *core.StockCommand `json:"command"`
}

// UserSession is returned by AuthenticateUser.
type UserSession struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// UserResult is returned by GetUser.
type UserResult struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}
