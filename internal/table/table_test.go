package table

import (
	"errors"
	"io"
	"reflect"
	"testing"

	"example.com/flightlog/internal/dataflash"
)

type sliceSource struct {
	recs []dataflash.Record
	err  error
}

func (s *sliceSource) Next() (dataflash.Record, error) {
	if len(s.recs) == 0 {
		if s.err != nil {
			return dataflash.Record{}, s.err
		}
		return dataflash.Record{}, io.EOF
	}
	rec := s.recs[0]
	s.recs = s.recs[1:]
	return rec, nil
}

func rec(typ string, fields dataflash.Fields) dataflash.Record {
	return dataflash.Record{Type: typ, Fields: fields}
}

func TestCollectGroupsByType(t *testing.T) {
	src := &sliceSource{recs: []dataflash.Record{
		rec("XKF1", dataflash.Fields{"TimeUS": uint64(1), "PN": 0.0}),
		rec("MODE", dataflash.Fields{"TimeUS": uint64(2), "Mode": uint64(0)}),
		rec("XKF1", dataflash.Fields{"TimeUS": uint64(3), "PN": 1.0}),
		rec("XKF1", dataflash.Fields{"TimeUS": uint64(3), "PN": 1.0}),
	}}
	tbl, err := Collect(src)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if got := tbl.Types(); !reflect.DeepEqual(got, []string{"MODE", "XKF1"}) {
		t.Fatalf("Types = %v", got)
	}
	if tbl.Len() != 4 || tbl.Count("XKF1") != 3 || tbl.Count("MODE") != 1 {
		t.Fatalf("counts: len=%d xkf1=%d mode=%d", tbl.Len(), tbl.Count("XKF1"), tbl.Count("MODE"))
	}
	rows := tbl.Rows("XKF1")
	var times []uint64
	for _, r := range rows {
		times = append(times, r.Fields["TimeUS"].(uint64))
	}
	if !reflect.DeepEqual(times, []uint64{1, 3, 3}) {
		t.Fatalf("XKF1 order = %v, duplicates must be kept", times)
	}
	if tbl.Has("GPS") || tbl.Rows("GPS") != nil || tbl.Schema("GPS") != nil {
		t.Fatalf("unseen type reported as present")
	}
}

func TestSchemaIsUnionOfFields(t *testing.T) {
	tbl := New()
	tbl.Add(rec("ERR", dataflash.Fields{"TimeUS": uint64(1), "Subsys": uint64(2)}))
	tbl.Add(rec("ERR", dataflash.Fields{"TimeUS": uint64(2), "ECode": uint64(5)}))
	tbl.Add(rec("ERR", dataflash.Fields{"Subsys": uint64(3)}))

	if got := tbl.Schema("ERR"); !reflect.DeepEqual(got, []string{"ECode", "Subsys", "TimeUS"}) {
		t.Fatalf("Schema = %v", got)
	}
	if got := tbl.SchemaSet("ERR").Names(); !reflect.DeepEqual(got, []string{"Subsys", "TimeUS", "ECode"}) {
		t.Fatalf("first-seen order = %v", got)
	}
	for _, r := range tbl.Rows("ERR") {
		for name := range r.Fields {
			if !tbl.SchemaSet("ERR").Contains(name) {
				t.Fatalf("schema missing %s", name)
			}
		}
	}
}

func TestSchemaNeverShrinks(t *testing.T) {
	tbl := New()
	inputs := []dataflash.Fields{
		{"A": int64(1), "B": int64(2)},
		{"A": int64(1)},
		{},
		{"C": int64(3)},
	}
	prev := 0
	for i, f := range inputs {
		tbl.Add(rec("T", f))
		n := len(tbl.Schema("T"))
		if n < prev {
			t.Fatalf("schema shrank after record %d: %d < %d", i, n, prev)
		}
		prev = n
	}
	if prev != 3 {
		t.Fatalf("final schema size = %d, want 3", prev)
	}
}

func TestCollectReturnsPartialTableOnError(t *testing.T) {
	boom := errors.New("disk gone")
	src := &sliceSource{
		recs: []dataflash.Record{rec("MSG", dataflash.Fields{"Message": "hi"})},
		err:  boom,
	}
	tbl, err := Collect(src)
	if !errors.Is(err, boom) {
		t.Fatalf("Collect error = %v, want %v", err, boom)
	}
	if tbl == nil || tbl.Count("MSG") != 1 {
		t.Fatalf("partial table lost collected records")
	}
}
