package importer

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/carbocation/qfeatures/errs"
	"github.com/carbocation/qfeatures/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const peptides = "Sequence\tProteins\tScore\tIntensity s1\tIntensity s2\n" +
	"AAK\tP1\t10.5\t100\t200\n" +
	"CCR\tP1;P2\t3\tNA\t50\n" +
	"\tP3\t\t0\t\n"

func TestReadPrefix(t *testing.T) {
	cfg, err := Layout("maxquant-peptides")
	require.NoError(t, err)

	a, err := Read(strings.NewReader(peptides), cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"AAK", "CCR", "row3"}, a.RowIDs())
	assert.Equal(t, []string{"s1", "s2"}, a.ColIDs())
	assert.Equal(t, 100.0, a.At(0, 0))
	assert.True(t, math.IsNaN(a.At(1, 0)))
	assert.True(t, math.IsNaN(a.At(2, 1)))

	assert.Equal(t, []string{"Sequence", "Proteins", "Score"}, a.RowData().Names())
	score, _ := a.RowData().Column("Score")
	assert.Equal(t, table.KindFloat, score.Kind())
	assert.False(t, score.Cell(2).Valid)
}

func TestReadExplicitColumnsDetectDelimiter(t *testing.T) {
	in := "id,grp,a,b\np1,x,1,2\np2,y,3,4\np3,z,5,6\n"
	a, err := Read(strings.NewReader(in), Config{IDColumn: "id", QuantColumns: []string{"b", "a"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, a.ColIDs())
	assert.Equal(t, []float64{2, 1}, a.Row(0))
}

func TestReadErrors(t *testing.T) {
	_, err := Read(strings.NewReader(peptides), Config{IDColumn: "Nope", QuantPrefix: "Intensity ", Delimiter: '\t'})
	var missing *errs.MissingColumnError
	assert.True(t, errors.As(err, &missing))

	_, err = Read(strings.NewReader(peptides), Config{QuantPrefix: "LFQ ", Delimiter: '\t'})
	assert.Error(t, err)

	_, err = Read(strings.NewReader("id\ta\nx\tnotanumber\n"), Config{IDColumn: "id", QuantColumns: []string{"a"}, Delimiter: '\t'})
	assert.Error(t, err)

	_, err = Layout("nope")
	assert.Error(t, err)
}

func TestReadColData(t *testing.T) {
	in := "sample\tcondition\tbatch\n01\tcase\t1\n02\tctrl\t2\n"
	cd, err := ReadColData(strings.NewReader(in), "sample", '\t')
	require.NoError(t, err)

	id, _ := cd.Column("sample")
	assert.Equal(t, table.KindString, id.Kind())
	assert.Equal(t, "01", id.Key(0))
	batch, _ := cd.Column("batch")
	assert.Equal(t, table.KindInt, batch.Kind())

	_, err = ReadColData(strings.NewReader(in), "id", '\t')
	assert.Error(t, err)
}

func TestOpenGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(peptides))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), "peptides.txt.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	dt, err := DetectDataType(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, DataTypeGzip, dt)

	a, err := ReadFile(context.Background(), path, nil, Layouts["maxquant-peptides"])
	require.NoError(t, err)
	assert.Equal(t, 3, a.NRow())
}

func TestOpenPlain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peptides.txt")
	require.NoError(t, os.WriteFile(path, []byte(peptides), 0644))

	a, err := ReadFile(context.Background(), path, nil, Layouts["maxquant-peptides"])
	require.NoError(t, err)
	assert.Equal(t, 2, a.NCol())

	_, err = Open(context.Background(), "gs://bucket/object", nil)
	assert.Error(t, err)
}

func TestSplitGSPath(t *testing.T) {
	b, o, err := splitGSPath("gs://bucket/dir/file.txt")
	require.NoError(t, err)
	assert.Equal(t, "bucket", b)
	assert.Equal(t, "dir/file.txt", o)

	_, _, err = splitGSPath("gs://bucket")
	assert.Error(t, err)
}
