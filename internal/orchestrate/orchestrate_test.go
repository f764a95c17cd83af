package orchestrate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/udisescan/udisescan/internal/config"
	"github.com/udisescan/udisescan/internal/detail"
	"github.com/udisescan/udisescan/internal/extract"
	"github.com/udisescan/udisescan/internal/paginate"
	"github.com/udisescan/udisescan/internal/portal"
	"github.com/udisescan/udisescan/internal/record"
)

type fakePortal struct {
	states    []portal.Region
	districts map[string][]portal.Region

	current      string
	openCalls    int
	selectErrors map[string]int // district name -> failures to inject
}

func (f *fakePortal) Open(ctx context.Context) error {
	f.openCalls++
	return nil
}
func (f *fakePortal) States(ctx context.Context) ([]portal.Region, error) {
	return f.states, nil
}
func (f *fakePortal) Districts(ctx context.Context) ([]portal.Region, error) {
	return f.districts[f.current], nil
}
func (f *fakePortal) SelectState(ctx context.Context, r portal.Region) error {
	f.current = r.Name
	return nil
}
func (f *fakePortal) SelectDistrict(ctx context.Context, r portal.Region) error {
	if n := f.selectErrors[r.Name]; n > 0 {
		f.selectErrors[r.Name] = n - 1
		return errors.New("dropdown did not respond")
	}
	return nil
}
func (f *fakePortal) ClickSearch(ctx context.Context) error    { return nil }
func (f *fakePortal) SetPageSize(ctx context.Context)          {}
func (f *fakePortal) ConfirmResults(ctx context.Context) error { return nil }

type fakeLister struct {
	perDistrict map[string][]record.Record
	failFor     map[string]bool
	harvested   []string
}

func (f *fakeLister) Harvest(ctx context.Context, rctx extract.Context, sink paginate.SinkFunc) (int, error) {
	if f.failFor[rctx.District] {
		return 0, errors.New("listing never rendered")
	}
	f.harvested = append(f.harvested, rctx.District)
	recs := f.perDistrict[rctx.District]
	if err := sink(1, recs); err != nil {
		return 0, err
	}
	return len(recs), nil
}

type fakeDetail struct {
	inputs []string
	err    error
}

func (f *fakeDetail) Run(ctx context.Context, input string) (detail.Summary, error) {
	f.inputs = append(f.inputs, input)
	return detail.Summary{Input: input}, f.err
}

func regions(names ...string) []portal.Region {
	out := make([]portal.Region, 0, len(names))
	for i, n := range names {
		out = append(out, portal.Region{Name: n, ID: string(rune('1' + i))})
	}
	return out
}

func rec(name, code string) record.Record {
	return record.Record{
		"school_name":    name,
		"udise_code":     code,
		"know_more_link": "https://kys.udiseplus.gov.in/#/schooldetail/1/1",
	}
}

func testSetup(t *testing.T) (config.Config, *fakePortal, *fakeLister) {
	t.Helper()
	cfg := config.Test()
	cfg.OutputDir = t.TempDir()
	p := &fakePortal{
		states: regions("ALPHA", "BETA"),
		districts: map[string][]portal.Region{
			"ALPHA": regions("A1", "A2"),
			"BETA":  regions("B1"),
		},
		selectErrors: map[string]int{},
	}
	l := &fakeLister{
		perDistrict: map[string][]record.Record{
			"A1": {rec("S1", "111"), rec("S2", "112")},
			"A2": {rec("S3", "121")},
			"B1": {rec("S4", "211")},
		},
		failFor: map[string]bool{},
	}
	return cfg, p, l
}

func TestRun_AllStatesAllDistricts(t *testing.T) {
	cfg, p, l := testSetup(t)
	orch := New(cfg, p, l, nil)

	sum, err := orch.Run(context.Background(), Selection{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.StatesProcessed != 2 || sum.StatesFailed != 0 {
		t.Errorf("states = %d/%d failed", sum.StatesProcessed, sum.StatesFailed)
	}
	if sum.DistrictsProcessed != 3 {
		t.Errorf("districts processed = %d, want 3", sum.DistrictsProcessed)
	}
	if sum.Records != 4 {
		t.Errorf("records = %d, want 4", sum.Records)
	}
	if len(sum.Outputs) != 2 {
		t.Errorf("outputs = %v, want one listing file per state", sum.Outputs)
	}
}

func TestRun_DistrictFailureIsIsolated(t *testing.T) {
	cfg, p, l := testSetup(t)
	l.failFor["A1"] = true
	orch := New(cfg, p, l, nil)

	sum, err := orch.Run(context.Background(), Selection{})
	if err != nil {
		t.Fatalf("a failed district must not abort the run: %v", err)
	}
	if sum.DistrictsFailed != 1 {
		t.Errorf("DistrictsFailed = %d, want 1", sum.DistrictsFailed)
	}
	if sum.DistrictsProcessed != 2 {
		t.Errorf("DistrictsProcessed = %d, want the remaining districts", sum.DistrictsProcessed)
	}
	if sum.StatesProcessed != 2 {
		t.Errorf("StatesProcessed = %d, a state with surviving districts still counts", sum.StatesProcessed)
	}
}

func TestRun_AllDistrictsFailedFailsState(t *testing.T) {
	cfg, p, l := testSetup(t)
	l.failFor["B1"] = true
	det := &fakeDetail{}
	orch := New(cfg, p, l, det)

	sum, err := orch.Run(context.Background(), Selection{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.StatesFailed != 1 || sum.StatesProcessed != 1 {
		t.Errorf("states = %d ok / %d failed, want 1/1", sum.StatesProcessed, sum.StatesFailed)
	}
	// Enrichment must only run for the state that produced a listing.
	if len(det.inputs) != 1 {
		t.Errorf("detail runs = %d, want 1 (failed state skipped)", len(det.inputs))
	}
	if !strings.Contains(det.inputs[0], "ALPHA") {
		t.Errorf("detail input = %q, want the surviving state's file", det.inputs[0])
	}
}

func TestRun_TransientSelectionFailureRetried(t *testing.T) {
	cfg, p, l := testSetup(t)
	p.selectErrors["A2"] = 2 // fails twice, succeeds on the third attempt
	orch := New(cfg, p, l, nil)

	sum, err := orch.Run(context.Background(), Selection{State: "ALPHA"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.DistrictsProcessed != 2 || sum.DistrictsFailed != 0 {
		t.Errorf("districts = %d ok / %d failed, transient failure must be retried",
			sum.DistrictsProcessed, sum.DistrictsFailed)
	}
}

func TestRun_SelectionFilters(t *testing.T) {
	cfg, p, l := testSetup(t)
	orch := New(cfg, p, l, nil)

	sum, err := orch.Run(context.Background(), Selection{State: "alpha", District: "a2"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.StatesProcessed != 1 || sum.DistrictsProcessed != 1 {
		t.Errorf("got %d states, %d districts, want exactly the selected pair",
			sum.StatesProcessed, sum.DistrictsProcessed)
	}
	if len(l.harvested) != 1 || l.harvested[0] != "A2" {
		t.Errorf("harvested = %v, want [A2]", l.harvested)
	}
}

func TestRun_UnknownStateErrors(t *testing.T) {
	cfg, p, l := testSetup(t)
	orch := New(cfg, p, l, nil)

	if _, err := orch.Run(context.Background(), Selection{State: "NOWHERE"}); err == nil {
		t.Fatal("unknown state selection must error")
	}
}

func TestRun_DetailFailureDoesNotFailState(t *testing.T) {
	cfg, p, l := testSetup(t)
	det := &fakeDetail{err: errors.New("browser crashed")}
	orch := New(cfg, p, l, det)

	sum, err := orch.Run(context.Background(), Selection{State: "BETA"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.StatesFailed != 0 {
		t.Error("a failed enrichment must not fail the state, the listing is already written")
	}
}
