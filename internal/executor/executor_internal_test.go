package executor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/aqasim81/fly/internal/migration"
	"github.com/aqasim81/fly/internal/planner"
)

// mockLedger implements Ledger in memory and records every mutation.
type mockLedger struct {
	records     []migration.Record
	calls       []string
	ensureErr   error
	listErr     error
	applyErr    error
	rollbackErr error
	nextID      int32
}

func (m *mockLedger) EnsureTable(_ context.Context) error {
	m.calls = append(m.calls, "ensure")
	return m.ensureErr
}

func (m *mockLedger) List(_ context.Context) ([]migration.Record, error) {
	m.calls = append(m.calls, "list")
	return m.records, m.listErr
}

func (m *mockLedger) Apply(_ context.Context, def *migration.Migration) (migration.Record, error) {
	m.calls = append(m.calls, "apply "+def.Name)
	if m.applyErr != nil {
		return migration.Record{}, m.applyErr
	}

	m.nextID++
	rec := migration.Record{Migration: *def, ID: m.nextID, CreatedAt: time.Unix(0, 0)}
	m.records = append(m.records, rec)

	return rec, nil
}

func (m *mockLedger) Rollback(_ context.Context, name, downSQL string) error {
	m.calls = append(m.calls, "rollback "+name+": "+downSQL)
	return m.rollbackErr
}

// mutations returns the calls that would have changed the database.
func (m *mockLedger) mutations() []string {
	var out []string

	for _, c := range m.calls {
		if c != "ensure" && c != "list" {
			out = append(out, c)
		}
	}

	return out
}

func def(name string) migration.Migration {
	table := "t_" + strings.ReplaceAll(name, "-", "_")

	return migration.Migration{
		Name:    name,
		UpSQL:   "CREATE TABLE " + table + " (id INT);",
		DownSQL: "DROP TABLE " + table + ";",
	}
}

func record(m migration.Migration) migration.Record {
	return migration.Record{Migration: m, ID: 1, CreatedAt: time.Unix(0, 0)}
}

func recordEvents(events *[]ProgressEvent) Option {
	return WithProgressCallback(func(ev ProgressEvent) { *events = append(*events, ev) })
}

// --- Plan ---

func TestPlan_reconcilesDefinitionsWithLedger(t *testing.T) {
	t.Parallel()

	a, b := def("1-a"), def("2-b")
	ledger := &mockLedger{records: []migration.Record{record(a)}}

	states, err := New(ledger).Plan(context.Background(), []migration.Migration{a, b})

	require.NoError(t, err)
	assert.Equal(t, []string{"ensure", "list"}, ledger.calls)
	require.Len(t, states, 2)
	assert.IsType(t, planner.Applied{}, states[0])
	assert.IsType(t, planner.Pending{}, states[1])
}

func TestPlan_ensureTableError_returnsError(t *testing.T) {
	t.Parallel()

	ledger := &mockLedger{ensureErr: errors.New("create table failed")}

	_, err := New(ledger).Plan(context.Background(), nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create table failed")
	assert.Equal(t, []string{"ensure"}, ledger.calls)
}

func TestPlan_listError_returnsError(t *testing.T) {
	t.Parallel()

	listErr := errors.New("list failed")

	_, err := New(&mockLedger{listErr: listErr}).Plan(context.Background(), nil)

	require.ErrorIs(t, err, listErr)
}

func TestPlan_debugDumpsDefinitionsAndRecords(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	a := def("1-a")

	_, err := New(&mockLedger{records: []migration.Record{record(a)}}, WithLogger(zap.New(core))).
		Plan(context.Background(), []migration.Migration{a})

	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("definition").Len())
	assert.Equal(t, 1, logs.FilterMessage("record").Len())
}

// --- Up ---

func TestUp_appliesPendingInOrder(t *testing.T) {
	t.Parallel()

	a, b, c := def("1-a"), def("2-b"), def("3-c")
	ledger := &mockLedger{}

	var events []ProgressEvent

	e := New(ledger, recordEvents(&events))
	states := planner.Reconcile([]migration.Migration{c, a, b}, nil)

	n, err := e.Up(context.Background(), states)

	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"apply 1-a", "apply 2-b", "apply 3-c"}, ledger.mutations())

	require.Len(t, events, 6)
	assert.Equal(t, StatusStarting, events[0].Status)
	assert.Equal(t, "1-a", events[0].Name)
	assert.Equal(t, DirectionUp, events[0].Direction)
	assert.Equal(t, StatusCompleted, events[1].Status)
}

func TestUp_nothingPending_appliesNothing(t *testing.T) {
	t.Parallel()

	a := def("1-a")
	ledger := &mockLedger{}
	states := planner.Reconcile([]migration.Migration{a}, []migration.Record{record(a)})

	n, err := New(ledger).Up(context.Background(), states)

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, ledger.mutations())
}

func TestUp_driftedStates_warnedAndLeftAlone(t *testing.T) {
	t.Parallel()

	changed := def("1-changed")
	edited := changed
	edited.UpSQL = "CREATE TABLE other (id INT);"
	removed := def("2-removed")
	pending := def("3-pending")

	core, logs := observer.New(zapcore.WarnLevel)
	ledger := &mockLedger{}

	states := planner.Reconcile(
		[]migration.Migration{edited, pending},
		[]migration.Record{record(changed), record(removed)},
	)

	n, err := New(ledger, WithLogger(zap.New(core))).Up(context.Background(), states)

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"apply 3-pending"}, ledger.mutations())
	assert.Equal(t, 2, logs.FilterMessage("skipping drifted migration").Len())
}

func TestUp_nonTransactionalSQL_rejectedBeforeAnyApply(t *testing.T) {
	t.Parallel()

	a := def("1-a")
	b := def("2-b")
	b.UpSQL = "CREATE INDEX CONCURRENTLY idx ON t_1 (id);"

	ledger := &mockLedger{}
	states := planner.Reconcile([]migration.Migration{a, b}, nil)

	_, err := New(ledger).Up(context.Background(), states)

	require.ErrorIs(t, err, ErrNonTransactional)
	assert.Contains(t, err.Error(), "2-b")
	assert.Empty(t, ledger.mutations())
}

func TestUp_checkError_returnsError(t *testing.T) {
	t.Parallel()

	ledger := &mockLedger{}
	e := New(ledger)
	e.checkSQL = func(string) ([]string, error) { return nil, errors.New("syntax error") }

	_, err := e.Up(context.Background(), planner.Reconcile([]migration.Migration{def("1-a")}, nil))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "checking migration 1-a")
	assert.Empty(t, ledger.mutations())
}

func TestUp_applyError_stopsAndReportsFailed(t *testing.T) {
	t.Parallel()

	applyErr := errors.New("relation already exists")
	ledger := &mockLedger{applyErr: applyErr}

	var events []ProgressEvent

	states := planner.Reconcile([]migration.Migration{def("1-a"), def("2-b")}, nil)

	n, err := New(ledger, recordEvents(&events)).Up(context.Background(), states)

	require.ErrorIs(t, err, applyErr)
	assert.Contains(t, err.Error(), "applying migration 1-a")
	assert.Zero(t, n)
	assert.Equal(t, []string{"apply 1-a"}, ledger.mutations())

	require.Len(t, events, 2)
	assert.Equal(t, StatusFailed, events[1].Status)
	assert.ErrorIs(t, events[1].Error, applyErr)
}

func TestUp_dryRun_nothingApplied(t *testing.T) {
	t.Parallel()

	ledger := &mockLedger{}

	var events []ProgressEvent

	states := planner.Reconcile([]migration.Migration{def("1-a"), def("2-b")}, nil)

	n, err := New(ledger, WithDryRun(true), recordEvents(&events)).Up(context.Background(), states)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, ledger.mutations())

	require.Len(t, events, 2)
	assert.Equal(t, StatusSkipped, events[0].Status)
	assert.Equal(t, "CREATE TABLE t_1_a (id INT);", events[0].SQL)
}

// --- Down ---

func TestDown_revertsLastApplied(t *testing.T) {
	t.Parallel()

	a, b := def("1-a"), def("2-b")
	ledger := &mockLedger{}

	var events []ProgressEvent

	states := planner.Reconcile([]migration.Migration{a, b}, []migration.Record{record(a), record(b)})

	rb, err := New(ledger, recordEvents(&events)).Down(context.Background(), states, planner.DownOptions{})

	require.NoError(t, err)
	require.NotNil(t, rb)
	assert.Equal(t, "2-b", rb.Name)
	assert.Equal(t, []string{"rollback 2-b: DROP TABLE t_2_b;"}, ledger.mutations())

	require.Len(t, events, 2)
	assert.Equal(t, DirectionDown, events[0].Direction)
	assert.Equal(t, StatusCompleted, events[1].Status)
}

func TestDown_nothingApplied_returnsNil(t *testing.T) {
	t.Parallel()

	ledger := &mockLedger{}
	states := planner.Reconcile([]migration.Migration{def("1-a")}, nil)

	rb, err := New(ledger).Down(context.Background(), states, planner.DownOptions{})

	require.NoError(t, err)
	assert.Nil(t, rb)
	assert.Empty(t, ledger.mutations())
}

func TestDown_refusals_leaveLedgerUntouched(t *testing.T) {
	t.Parallel()

	applied := def("1-applied")
	changedFile := def("2-changed")
	changedFile.DownSQL = "DROP TABLE renamed;"
	removed := def("3-removed")
	pending := def("4-pending")

	states := planner.Reconcile(
		[]migration.Migration{applied, changedFile, pending},
		[]migration.Record{record(applied), record(def("2-changed")), record(removed)},
	)

	tests := []struct {
		name    string
		opts    planner.DownOptions
		wantErr error
	}{
		{name: "conflicting flags", opts: planner.DownOptions{Recover: true, IgnoreChanged: true}, wantErr: planner.ErrConflictingFlags},
		{name: "unknown name", opts: planner.DownOptions{Name: "9-missing"}, wantErr: planner.ErrMigrationNotFound},
		{name: "pending", opts: planner.DownOptions{Name: "4-pending"}, wantErr: planner.ErrPendingRollback},
		{name: "changed without flags", opts: planner.DownOptions{Name: "2-changed"}, wantErr: planner.ErrChangedMigration},
		{name: "removed without flags", opts: planner.DownOptions{Name: "3-removed"}, wantErr: planner.ErrRemovedMigration},
		{
			name:    "removed with ignore-changed",
			opts:    planner.DownOptions{Name: "3-removed", IgnoreChanged: true},
			wantErr: planner.ErrRemovedMigration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ledger := &mockLedger{}

			rb, err := New(ledger).Down(context.Background(), states, tt.opts)

			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, rb)
			assert.Empty(t, ledger.mutations())
		})
	}
}

func TestDown_changedMigration_flagsPickSQL(t *testing.T) {
	t.Parallel()

	recorded := def("1-a")
	edited := recorded
	edited.DownSQL = "DROP TABLE edited;"

	states := planner.Reconcile([]migration.Migration{edited}, []migration.Record{record(recorded)})

	tests := []struct {
		name string
		opts planner.DownOptions
		want string
	}{
		{name: "recover uses recorded sql", opts: planner.DownOptions{Recover: true}, want: "rollback 1-a: DROP TABLE t_1_a;"},
		{name: "ignore-changed uses file sql", opts: planner.DownOptions{IgnoreChanged: true}, want: "rollback 1-a: DROP TABLE edited;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ledger := &mockLedger{}

			_, err := New(ledger).Down(context.Background(), states, tt.opts)

			require.NoError(t, err)
			assert.Equal(t, []string{tt.want}, ledger.mutations())
		})
	}
}

func TestDown_nonTransactionalSQL_rejected(t *testing.T) {
	t.Parallel()

	a := def("1-a")
	a.DownSQL = "DROP INDEX CONCURRENTLY idx;"
	ledger := &mockLedger{}

	states := planner.Reconcile([]migration.Migration{a}, []migration.Record{record(a)})

	_, err := New(ledger).Down(context.Background(), states, planner.DownOptions{})

	require.ErrorIs(t, err, ErrNonTransactional)
	assert.Empty(t, ledger.mutations())
}

func TestDown_rollbackError_reportsFailed(t *testing.T) {
	t.Parallel()

	a := def("1-a")
	rollbackErr := errors.New("table does not exist")
	ledger := &mockLedger{rollbackErr: rollbackErr}

	var events []ProgressEvent

	states := planner.Reconcile([]migration.Migration{a}, []migration.Record{record(a)})

	rb, err := New(ledger, recordEvents(&events)).Down(context.Background(), states, planner.DownOptions{})

	require.ErrorIs(t, err, rollbackErr)
	assert.Contains(t, err.Error(), "reverting migration 1-a")
	assert.Nil(t, rb)

	require.Len(t, events, 2)
	assert.Equal(t, StatusFailed, events[1].Status)
}

func TestDown_dryRun_nothingReverted(t *testing.T) {
	t.Parallel()

	a := def("1-a")
	ledger := &mockLedger{}

	var events []ProgressEvent

	states := planner.Reconcile([]migration.Migration{a}, []migration.Record{record(a)})

	rb, err := New(ledger, WithDryRun(true), recordEvents(&events)).Down(context.Background(), states, planner.DownOptions{})

	require.NoError(t, err)
	require.NotNil(t, rb)
	assert.Empty(t, ledger.mutations())

	require.Len(t, events, 1)
	assert.Equal(t, StatusSkipped, events[0].Status)
	assert.Equal(t, "DROP TABLE t_1_a;", events[0].SQL)
}

// --- fireProgress ---

func TestFireProgress_nilCallback_noPanic(t *testing.T) {
	t.Parallel()

	e := &Executor{}

	assert.NotPanics(t, func() {
		e.fireProgress(ProgressEvent{Name: "1-a", Status: StatusCompleted})
	})
}
