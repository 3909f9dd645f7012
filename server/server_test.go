package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/carbocation/qfeatures"
	"github.com/carbocation/qfeatures/reduce"
	"github.com/carbocation/qfeatures/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T) *httptest.Server {
	rd, err := table.New(3,
		table.StringColumn("Protein", []string{"P1", "P1", "P2"}),
		table.FloatColumn("pval", []float64{0.01, 0.5, 0.02}),
	)
	require.NoError(t, err)

	c, err := qfeatures.New().AddMatrix("peptides", []string{"AAK", "CCR", "DDK"}, []string{"s1"}, [][]float64{{1}, {2}, {3}}, rd, nil)
	require.NoError(t, err)
	c, err = c.Aggregate(context.Background(), qfeatures.AggregateOptions{From: "peptides", Column: "Protein", To: "proteins", Reduce: reduce.Sum(true)})
	require.NoError(t, err)

	s := New(c, log.New(io.Discard, "", 0))
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, ts *httptest.Server, path string) (int, []byte) {
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestListAssays(t *testing.T) {
	ts := testServer(t)

	code, body := get(t, ts, "/assays")
	require.Equal(t, http.StatusOK, code)

	var out struct {
		State  string
		Assays []struct {
			Name     string
			Features int
			Source   string
			Derived  []string
		}
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "linked", out.State)
	require.Len(t, out.Assays, 2)
	assert.Equal(t, []string{"proteins"}, out.Assays[0].Derived)
	assert.Equal(t, "peptides", out.Assays[1].Source)
	assert.Equal(t, 2, out.Assays[1].Features)
}

func TestAssayDetail(t *testing.T) {
	ts := testServer(t)

	code, body := get(t, ts, "/assays/proteins")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), `"name":".n"`)

	code, body = get(t, ts, "/assays/nope")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, string(body), `"kind":"NotFound"`)
}

func TestRelated(t *testing.T) {
	ts := testServer(t)

	code, body := get(t, ts, "/assays/proteins/features/P1/related?direction=descendants")
	require.Equal(t, http.StatusOK, code)

	var out struct {
		Related []struct {
			Assay    string
			Features []string
		}
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.Len(t, out.Related, 1)
	assert.Equal(t, []string{"AAK", "CCR"}, out.Related[0].Features)

	code, _ = get(t, ts, "/assays/proteins/features/P9/related")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = get(t, ts, "/assays/proteins/features/P1/related?direction=sideways")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestLongCSV(t *testing.T) {
	ts := testServer(t)

	code, body := get(t, ts, "/assays/proteins/long.csv")
	require.Equal(t, http.StatusOK, code)
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	assert.Equal(t, []string{"assay,feature,sample,value", "proteins,P1,s1,3", "proteins,P2,s1,3"}, lines)
}

func TestFilter(t *testing.T) {
	ts := testServer(t)

	code, body := get(t, ts, "/filter?expr=pval+%3C+0.05")
	require.Equal(t, http.StatusOK, code)

	var out struct {
		Assays []struct {
			Name          string
			Before, After int
		}
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.Len(t, out.Assays, 2)
	assert.Equal(t, 3, out.Assays[0].Before)
	assert.Equal(t, 2, out.Assays[0].After)
	assert.Equal(t, 2, out.Assays[1].After)

	code, body = get(t, ts, "/filter?expr=gene+%3D%3D+1")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(body), "InvalidPredicate")
}

func TestFilterDistinctExpressions(t *testing.T) {
	ts := testServer(t)

	// Each request carries a new expression; all are parsed afresh.
	for i, want := range []int{0, 1, 1, 3} {
		expr := fmt.Sprintf("pval < %g", []float64{0.005, 0.015, 0.019, 0.9}[i])
		code, body := get(t, ts, "/filter?expr="+url.QueryEscape(expr))
		require.Equal(t, http.StatusOK, code, expr)

		var out struct {
			Assays []struct {
				Name  string
				After int
			}
		}
		require.NoError(t, json.Unmarshal(body, &out))
		assert.Equal(t, want, out.Assays[0].After, expr)
	}
}
