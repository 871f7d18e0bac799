package health

import (
	"context"
	"errors"
	"testing"
)

type stubDB struct {
	err         error
	hadDeadline bool
}

func (s *stubDB) Ping(ctx context.Context) error {
	_, s.hadDeadline = ctx.Deadline()
	return s.err
}

type stubIndex struct {
	size    int
	version string
	ready   bool
}

func (s stubIndex) IndexStatus() (int, string, bool) { return s.size, s.version, s.ready }

var (
	loaded  = stubIndex{size: 1200, version: "build-7", ready: true}
	loading = stubIndex{}
)

func TestCheck(t *testing.T) {
	down := errors.New("conn refused")
	tests := []struct {
		name      string
		db        DBPinger
		index     stubIndex
		want      Status
		wantDB    CheckResult // empty: no database check expected
		wantIndex CheckResult
	}{
		{"all healthy", &stubDB{}, loaded, Healthy, CheckOK, CheckOK},
		{"database down", &stubDB{err: down}, loaded, Degraded, CheckError, CheckOK},
		{"index loading", &stubDB{}, loading, Degraded, CheckOK, CheckLoading},
		{"both failing", &stubDB{err: down}, loading, Unhealthy, CheckError, CheckLoading},
		{"memory catalog", nil, loaded, Healthy, "", CheckOK},
		{"memory catalog loading", nil, loading, Unhealthy, "", CheckLoading},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(tt.db, tt.index).Check(context.Background())

			if r.Status != tt.want {
				t.Errorf("status = %q, want %q", r.Status, tt.want)
			}
			got, hasDB := r.Checks[ComponentDatabase]
			if tt.wantDB == "" && hasDB {
				t.Errorf("unexpected database check %q", got)
			}
			if tt.wantDB != "" && got != tt.wantDB {
				t.Errorf("database = %q, want %q", got, tt.wantDB)
			}
			if r.Checks[ComponentIndex] != tt.wantIndex {
				t.Errorf("index = %q, want %q", r.Checks[ComponentIndex], tt.wantIndex)
			}
			if r.Index.Ready != tt.index.ready || r.Index.Documents != tt.index.size {
				t.Errorf("index info = %+v", r.Index)
			}
		})
	}
}

func TestCheck_PingIsBounded(t *testing.T) {
	db := &stubDB{}
	New(db, loaded).Check(context.Background())
	if !db.hadDeadline {
		t.Error("database ping should run under a deadline")
	}
}

func TestCheck_IndexVersion(t *testing.T) {
	r := New(nil, loaded).Check(context.Background())
	if r.Index.Version != "build-7" {
		t.Errorf("version = %q", r.Index.Version)
	}
}
