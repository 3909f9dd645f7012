package sqlitestore

// A snapshot is stored across these tables. Missing quantitations and null
// metadata cells are NULL. Positions keep every list in its original order.
const schema = `
CREATE TABLE IF NOT EXISTS container (
	filtered INTEGER NOT NULL,
	pruned INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS assays (
	position INTEGER NOT NULL,
	name TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS features (
	assay TEXT NOT NULL,
	position INTEGER NOT NULL,
	id TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS samples (
	assay TEXT NOT NULL,
	position INTEGER NOT NULL,
	id TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS quantitations (
	assay TEXT NOT NULL,
	feature INTEGER NOT NULL,
	sample INTEGER NOT NULL,
	value REAL
);
CREATE TABLE IF NOT EXISTS meta_columns (
	owner TEXT NOT NULL,
	axis TEXT NOT NULL,
	position INTEGER NOT NULL,
	name TEXT NOT NULL,
	kind TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS meta_cells (
	owner TEXT NOT NULL,
	axis TEXT NOT NULL,
	col_index INTEGER NOT NULL,
	row_index INTEGER NOT NULL,
	value TEXT
);
CREATE TABLE IF NOT EXISTS links (
	position INTEGER NOT NULL,
	child TEXT NOT NULL,
	parent TEXT NOT NULL,
	group_column TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS link_members (
	parent TEXT NOT NULL,
	group_position INTEGER NOT NULL,
	parent_row TEXT NOT NULL,
	member_position INTEGER NOT NULL,
	child_row TEXT NOT NULL
);
`

var tables = []string{
	"container",
	"assays",
	"features",
	"samples",
	"quantitations",
	"meta_columns",
	"meta_cells",
	"links",
	"link_members",
}

const (
	axisRow    = "row"
	axisCol    = "col"
	axisShared = "shared"
)
