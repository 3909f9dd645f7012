package server

import (
	"bytes"
	"math"
	"net/http"
	"strconv"

	"github.com/carbocation/qfeatures"
	"github.com/carbocation/qfeatures/relations"
	"github.com/gorilla/mux"
	"gopkg.in/guregu/null.v3"
)

type handler struct {
	*Server
}

// jsonFloat keeps NaN, which JSON cannot carry, out of responses.
func jsonFloat(v float64) null.Float {
	return null.NewFloat(v, !math.IsNaN(v) && !math.IsInf(v, 0))
}

type assayInfo struct {
	Name     string   `json:"name"`
	Features int      `json:"features"`
	Samples  int      `json:"samples"`
	Missing  int      `json:"missing"`
	Source   string   `json:"source,omitempty"`
	Column   string   `json:"column,omitempty"`
	Derived  []string `json:"derived"`
}

func describe(c *qfeatures.Container, name string) (assayInfo, error) {
	a, err := c.Assay(name)
	if err != nil {
		return assayInfo{}, err
	}
	info := assayInfo{
		Name:     name,
		Features: a.NRow(),
		Samples:  a.NCol(),
		Missing:  a.CountNaN(),
		Derived:  c.Links().Parents(name),
	}
	if e, ok := c.Links().Edge(name); ok {
		info.Source, info.Column = e.Child, e.Column
	}
	if info.Derived == nil {
		info.Derived = []string{}
	}
	return info, nil
}

func (h *handler) ListAssays(w http.ResponseWriter, r *http.Request) {
	c := h.Container()

	out := struct {
		State  string      `json:"state"`
		Assays []assayInfo `json:"assays"`
	}{
		State:  c.State().String(),
		Assays: make([]assayInfo, 0, c.Len()),
	}
	for _, name := range c.Names() {
		info, err := describe(c, name)
		if err != nil {
			JSONError(h, w, r, err)
			return
		}
		out.Assays = append(out.Assays, info)
	}

	renderJSON(h, w, r, out)
}

type columnInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

type sampleInfo struct {
	Sample  string     `json:"sample"`
	N       int        `json:"n"`
	Missing int        `json:"missing"`
	Mean    null.Float `json:"mean"`
	SD      null.Float `json:"sd"`
	Min     null.Float `json:"min"`
	Max     null.Float `json:"max"`
}

func (h *handler) Assay(w http.ResponseWriter, r *http.Request) {
	c := h.Container()
	name := mux.Vars(r)["assay"]

	info, err := describe(c, name)
	if err != nil {
		JSONError(h, w, r, err)
		return
	}
	a, _ := c.Assay(name)

	out := struct {
		assayInfo
		RowData []columnInfo `json:"row_data"`
		Summary []sampleInfo `json:"summary"`
	}{assayInfo: info}

	rd := a.RowData()
	for i := 0; i < rd.NCol(); i++ {
		col := rd.ColumnAt(i)
		out.RowData = append(out.RowData, columnInfo{Name: col.Name(), Kind: col.Kind().String()})
	}
	for _, s := range a.ColumnSummaries() {
		out.Summary = append(out.Summary, sampleInfo{
			Sample:  s.Sample,
			N:       s.N,
			Missing: s.Missing,
			Mean:    jsonFloat(s.Mean),
			SD:      jsonFloat(s.SD),
			Min:     jsonFloat(s.Min),
			Max:     jsonFloat(s.Max),
		})
	}

	renderJSON(h, w, r, out)
}

func (h *handler) Related(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	dir, err := relations.ParseDirection(r.URL.Query().Get("direction"))
	if err != nil {
		JSONError(h, w, r, err, http.StatusBadRequest)
		return
	}

	related, err := h.Container().RowsRelatedTo(vars["assay"], vars["feature"], dir)
	if err != nil {
		JSONError(h, w, r, err)
		return
	}

	type group struct {
		Assay    string   `json:"assay"`
		Features []string `json:"features"`
	}
	out := struct {
		Assay     string  `json:"assay"`
		Feature   string  `json:"feature"`
		Direction string  `json:"direction"`
		Related   []group `json:"related"`
	}{vars["assay"], vars["feature"], dir.String(), make([]group, 0, len(related))}
	for _, rel := range related {
		out.Related = append(out.Related, group{rel.Assay, rel.RowIDs})
	}

	renderJSON(h, w, r, out)
}

func (h *handler) LongCSV(w http.ResponseWriter, r *http.Request) {
	records, err := h.Container().LongForm(mux.Vars(r)["assay"])
	if err != nil {
		JSONError(h, w, r, err)
		return
	}

	// Render fully before writing so that a failure can still be reported
	// with a proper status.
	var buf bytes.Buffer
	if err := qfeatures.WriteLongCSV(&buf, records); err != nil {
		JSONError(h, w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Filter reports the dimensions every assay would have after filtering. The
// served container is not changed.
func (h *handler) Filter(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	keepMissing, _ := strconv.ParseBool(q.Get("keep_missing"))

	c := h.Container()
	filtered, err := c.FilterExpr(q.Get("expr"), qfeatures.FilterOptions{KeepMissing: keepMissing})
	if err != nil {
		JSONError(h, w, r, err)
		return
	}

	type dims struct {
		Name   string `json:"name"`
		Before int    `json:"before"`
		After  int    `json:"after"`
	}
	out := struct {
		Expr   string `json:"expr"`
		Assays []dims `json:"assays"`
	}{Expr: q.Get("expr")}
	for _, name := range c.Names() {
		before, _ := c.Assay(name)
		after, _ := filtered.Assay(name)
		out.Assays = append(out.Assays, dims{name, before.NRow(), after.NRow()})
	}

	renderJSON(h, w, r, out)
}
