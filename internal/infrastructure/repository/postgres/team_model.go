package postgres

import "time"

type teamTableModel struct {
	Key         string    `db:"key"`
	DisplayName string    `db:"display_name"`
	Competition string    `db:"competition"`
	Aliases     string    `db:"aliases"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type teamInsertModel struct {
	Key         string `db:"key"`
	DisplayName string `db:"display_name"`
	Competition string `db:"competition"`
	Aliases     string `db:"aliases"`
}
