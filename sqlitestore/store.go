// Package sqlitestore saves a container to a SQLite database and reads it
// back, with its assays, metadata, sample annotation and links.
package sqlitestore

import (
	"database/sql"
	"fmt"
	"math"

	"github.com/carbocation/pfx"
	"github.com/carbocation/qfeatures"
	"github.com/carbocation/qfeatures/assay"
	"github.com/carbocation/qfeatures/relations"
	"github.com/carbocation/qfeatures/table"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"gopkg.in/guregu/null.v3"
)

// Open connects to the SQLite database at path. ":memory:" gives a private
// in-memory database.
func Open(path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	// An in-memory database lives and dies with its connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, pfx.Err(err)
	}
	return db, nil
}

// Save replaces whatever snapshot db holds with c.
func Save(db *sqlx.DB, c *qfeatures.Container) (err error) {
	if _, err := db.Exec(schema); err != nil {
		return pfx.Err(err)
	}

	tx, err := db.Beginx()
	if err != nil {
		return pfx.Err(err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, t := range tables {
		if _, err := tx.Exec("DELETE FROM " + t); err != nil {
			return pfx.Err(err)
		}
	}

	state := containerRow{}
	if c.State() == qfeatures.Filtered {
		state.Filtered = true
	}
	state.Pruned = c.Pruned()
	if _, err := tx.NamedExec("INSERT INTO container (filtered, pruned) VALUES (:filtered, :pruned)", state); err != nil {
		return pfx.Err(err)
	}

	for i, name := range c.Names() {
		a, err := c.Assay(name)
		if err != nil {
			return err
		}
		if err := saveAssay(tx, i, name, a); err != nil {
			return fmt.Errorf("assay %s: %w", name, err)
		}
	}

	if cd := c.ColData(); cd.NCol() > 1 {
		if err := saveTable(tx, "", axisShared, cd); err != nil {
			return fmt.Errorf("sample annotation: %w", err)
		}
	}

	for i, e := range c.Links().Edges() {
		if err := saveLink(tx, i, e); err != nil {
			return fmt.Errorf("link %s -> %s: %w", e.Child, e.Parent, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return pfx.Err(err)
	}
	return nil
}

func saveAssay(tx *sqlx.Tx, position int, name string, a *assay.Assay) error {
	if _, err := tx.Exec("INSERT INTO assays (position, name) VALUES (?, ?)", position, name); err != nil {
		return pfx.Err(err)
	}

	if err := saveIDs(tx, "features", name, a.RowIDs()); err != nil {
		return err
	}
	if err := saveIDs(tx, "samples", name, a.ColIDs()); err != nil {
		return err
	}

	stmt, err := tx.Preparex("INSERT INTO quantitations (assay, feature, sample, value) VALUES (?, ?, ?, ?)")
	if err != nil {
		return pfx.Err(err)
	}
	defer stmt.Close()

	for i := 0; i < a.NRow(); i++ {
		for j := 0; j < a.NCol(); j++ {
			v := a.At(i, j)
			if _, err := stmt.Exec(name, i, j, null.NewFloat(v, !math.IsNaN(v))); err != nil {
				return pfx.Err(err)
			}
		}
	}

	if err := saveTable(tx, name, axisRow, a.RowData()); err != nil {
		return err
	}
	return saveTable(tx, name, axisCol, a.ColData())
}

func saveIDs(tx *sqlx.Tx, into, name string, ids []string) error {
	stmt, err := tx.Preparex("INSERT INTO " + into + " (assay, position, id) VALUES (?, ?, ?)")
	if err != nil {
		return pfx.Err(err)
	}
	defer stmt.Close()

	for i, id := range ids {
		if _, err := stmt.Exec(name, i, id); err != nil {
			return pfx.Err(err)
		}
	}
	return nil
}

func saveTable(tx *sqlx.Tx, owner, axis string, t *table.Table) error {
	cols, err := tx.Preparex("INSERT INTO meta_columns (owner, axis, position, name, kind) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return pfx.Err(err)
	}
	defer cols.Close()

	cells, err := tx.Preparex("INSERT INTO meta_cells (owner, axis, col_index, row_index, value) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return pfx.Err(err)
	}
	defer cells.Close()

	for j := 0; j < t.NCol(); j++ {
		col := t.ColumnAt(j)
		if _, err := cols.Exec(owner, axis, j, col.Name(), col.Kind().String()); err != nil {
			return pfx.Err(err)
		}
		for i, v := range col.Raw() {
			if _, err := cells.Exec(owner, axis, j, i, v); err != nil {
				return pfx.Err(err)
			}
		}
	}
	return nil
}

func saveLink(tx *sqlx.Tx, position int, e *relations.Edge) error {
	if _, err := tx.Exec("INSERT INTO links (position, child, parent, group_column) VALUES (?, ?, ?, ?)", position, e.Child, e.Parent, e.Column); err != nil {
		return pfx.Err(err)
	}

	stmt, err := tx.Preparex("INSERT INTO link_members (parent, group_position, parent_row, member_position, child_row) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return pfx.Err(err)
	}
	defer stmt.Close()

	for g, group := range e.Groups() {
		for m, child := range group.Children {
			if _, err := stmt.Exec(e.Parent, g, group.Parent, m, child); err != nil {
				return pfx.Err(err)
			}
		}
	}
	return nil
}

type containerRow struct {
	Filtered bool `db:"filtered"`
	Pruned   bool `db:"pruned"`
}

type assayRow struct {
	Position int    `db:"position"`
	Name     string `db:"name"`
}

type quantRow struct {
	Feature int             `db:"feature"`
	Sample  int             `db:"sample"`
	Value   sql.NullFloat64 `db:"value"`
}

type metaColumnRow struct {
	Position int    `db:"position"`
	Name     string `db:"name"`
	Kind     string `db:"kind"`
}

type metaCellRow struct {
	Col   int         `db:"col_index"`
	Row   int         `db:"row_index"`
	Value null.String `db:"value"`
}

type linkRow struct {
	Child       string `db:"child"`
	Parent      string `db:"parent"`
	GroupColumn string `db:"group_column"`
}

type memberRow struct {
	GroupPosition int    `db:"group_position"`
	ParentRow     string `db:"parent_row"`
	ChildRow      string `db:"child_row"`
}

// Load reads back the snapshot written by Save. Options apply to the
// returned container.
func Load(db *sqlx.DB, opts ...qfeatures.Option) (*qfeatures.Container, error) {
	c := qfeatures.New(opts...)

	var assays []assayRow
	if err := db.Select(&assays, "SELECT position, name FROM assays ORDER BY position"); err != nil {
		return nil, pfx.Err(err)
	}
	for _, ar := range assays {
		a, err := loadAssay(db, ar.Name)
		if err != nil {
			return nil, fmt.Errorf("assay %s: %w", ar.Name, err)
		}
		if c, err = c.AddAssay(ar.Name, a); err != nil {
			return nil, err
		}
	}

	var state []containerRow
	if err := db.Select(&state, "SELECT filtered, pruned FROM container"); err != nil {
		return nil, pfx.Err(err)
	}
	if len(state) > 0 {
		// Links may name removed rows, so this must precede them.
		if state[0].Pruned {
			c = c.MarkPruned()
		}
		if state[0].Filtered {
			c = c.MarkFiltered()
		}
	}

	shared, err := loadTable(db, "", axisShared, -1)
	if err != nil {
		return nil, fmt.Errorf("sample annotation: %w", err)
	}
	if shared.NCol() > 0 {
		if c, err = c.WithColData(shared, qfeatures.SampleColumn); err != nil {
			return nil, err
		}
	}

	var links []linkRow
	if err := db.Select(&links, "SELECT child, parent, group_column FROM links ORDER BY position"); err != nil {
		return nil, pfx.Err(err)
	}
	for _, l := range links {
		var members []memberRow
		if err := db.Select(&members, "SELECT group_position, parent_row, child_row FROM link_members WHERE parent = ? ORDER BY group_position, member_position", l.Parent); err != nil {
			return nil, pfx.Err(err)
		}

		var groups []relations.Group
		for _, m := range members {
			if len(groups) <= m.GroupPosition {
				groups = append(groups, relations.Group{Parent: m.ParentRow})
			}
			g := &groups[len(groups)-1]
			g.Children = append(g.Children, m.ChildRow)
		}

		if c, err = c.Link(relations.FromGroups(l.Child, l.Parent, l.GroupColumn, groups)); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func loadIDs(db *sqlx.DB, from, name string) ([]string, error) {
	var ids []string
	if err := db.Select(&ids, "SELECT id FROM "+from+" WHERE assay = ? ORDER BY position", name); err != nil {
		return nil, pfx.Err(err)
	}
	return ids, nil
}

func loadAssay(db *sqlx.DB, name string) (*assay.Assay, error) {
	rowIDs, err := loadIDs(db, "features", name)
	if err != nil {
		return nil, err
	}
	colIDs, err := loadIDs(db, "samples", name)
	if err != nil {
		return nil, err
	}

	rows := make([][]float64, len(rowIDs))
	for i := range rows {
		rows[i] = make([]float64, len(colIDs))
		for j := range rows[i] {
			rows[i][j] = math.NaN()
		}
	}

	var quants []quantRow
	if err := db.Select(&quants, "SELECT feature, sample, value FROM quantitations WHERE assay = ?", name); err != nil {
		return nil, pfx.Err(err)
	}
	for _, q := range quants {
		if q.Feature >= len(rows) || q.Sample >= len(colIDs) {
			return nil, fmt.Errorf("quantitation at %d,%d is outside the %dx%d matrix", q.Feature, q.Sample, len(rowIDs), len(colIDs))
		}
		if q.Value.Valid {
			rows[q.Feature][q.Sample] = q.Value.Float64
		}
	}

	rowData, err := loadTable(db, name, axisRow, len(rowIDs))
	if err != nil {
		return nil, err
	}
	colData, err := loadTable(db, name, axisCol, len(colIDs))
	if err != nil {
		return nil, err
	}

	return assay.New(rowIDs, colIDs, rows, rowData, colData)
}

// loadTable rebuilds a metadata table. nrow < 0 takes the height from the
// stored cells, which is only possible when there is at least one column.
func loadTable(db *sqlx.DB, owner, axis string, nrow int) (*table.Table, error) {
	var cols []metaColumnRow
	if err := db.Select(&cols, "SELECT position, name, kind FROM meta_columns WHERE owner = ? AND axis = ? ORDER BY position", owner, axis); err != nil {
		return nil, pfx.Err(err)
	}

	var cells []metaCellRow
	if err := db.Select(&cells, "SELECT col_index, row_index, value FROM meta_cells WHERE owner = ? AND axis = ? ORDER BY col_index, row_index", owner, axis); err != nil {
		return nil, pfx.Err(err)
	}

	if nrow < 0 {
		nrow = 0
		for _, cell := range cells {
			if cell.Row+1 > nrow {
				nrow = cell.Row + 1
			}
		}
	}

	raw := make([][]null.String, len(cols))
	for j := range raw {
		raw[j] = make([]null.String, nrow)
	}
	for _, cell := range cells {
		if cell.Col >= len(cols) || cell.Row >= nrow {
			return nil, fmt.Errorf("metadata cell %d,%d is outside the %dx%d table", cell.Row, cell.Col, nrow, len(cols))
		}
		raw[cell.Col][cell.Row] = cell.Value
	}

	out := make([]*table.Column, len(cols))
	for j, mc := range cols {
		kind, err := table.ParseKind(mc.Kind)
		if err != nil {
			return nil, err
		}
		if out[j], err = table.FromRaw(mc.Name, kind, raw[j]); err != nil {
			return nil, err
		}
	}

	return table.New(nrow, out...)
}
