package service

import (
	"context"
	"testing"
	"time"

	"github.com/Sladrus/messenger-server2/internal/model"
	"github.com/Sladrus/messenger-server2/internal/report"
	"github.com/Sladrus/messenger-server2/internal/view"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeStages struct {
	stages []model.Stage
}

func (f *fakeStages) ListByType(context.Context, string) ([]model.Stage, error) {
	return f.stages, nil
}

type fakeViews struct {
	views []model.ConversationView
}

func (f *fakeViews) List(context.Context, view.Filter) ([]model.ConversationView, error) {
	return f.views, nil
}

type fakeHistory struct {
	events []model.StageHistory
}

func (f *fakeHistory) ListRange(context.Context, time.Time, time.Time) ([]model.StageHistory, error) {
	return f.events, nil
}

type fakeConvs struct {
	convs map[primitive.ObjectID]model.Conversation
}

func (f *fakeConvs) FindByIDs(context.Context, []primitive.ObjectID) (map[primitive.ObjectID]model.Conversation, error) {
	return f.convs, nil
}

type fakeUsers struct {
	users map[primitive.ObjectID]model.User
}

func (f *fakeUsers) FindByIDs(context.Context, []primitive.ObjectID) (map[primitive.ObjectID]model.User, error) {
	return f.users, nil
}

var testCR = report.CRConfig{Initial: "raw", Success: "active"}

func defaultStages() []model.Stage {
	out := make([]model.Stage, len(model.DefaultStages))
	copy(out, model.DefaultStages)
	for i := range out {
		out[i].ID = primitive.NewObjectID()
	}
	return out
}

func stageByValue(stages []model.Stage, value string) model.Stage {
	for _, s := range stages {
		if s.Value == value {
			return s
		}
	}
	return model.Stage{}
}

func testQuery() HistoryQuery {
	return HistoryQuery{
		From: time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2025, time.August, 31, 23, 59, 59, 0, time.UTC),
	}
}

func TestByUsersRequiresDateRange(t *testing.T) {
	svc := NewReportService(&fakeStages{}, nil, nil, nil, nil, &fakeViews{}, time.UTC, testCR)

	if _, err := svc.ByUsers(context.Background(), HistoryQuery{}); err != ErrDateRangeRequired {
		t.Fatalf("expected ErrDateRangeRequired, got %v", err)
	}
	if _, err := svc.ByPeriods(context.Background(), HistoryQuery{}); err != ErrDateRangeRequired {
		t.Fatalf("expected ErrDateRangeRequired, got %v", err)
	}
	if _, err := svc.ByTags(context.Background(), HistoryQuery{}); err != ErrDateRangeRequired {
		t.Fatalf("expected ErrDateRangeRequired, got %v", err)
	}
}

func TestByUsersEmptyRangeStillHasTotalRow(t *testing.T) {
	stages := defaultStages()
	svc := NewReportService(&fakeStages{stages: stages}, nil, nil, nil, nil, &fakeViews{}, time.UTC, testCR)

	rep, err := svc.ByUsers(context.Background(), testQuery())
	if err != nil {
		t.Fatal(err)
	}

	if len(rep.Rows) != 1 {
		t.Fatalf("expected only the total row, got %d rows", len(rep.Rows))
	}
	total := rep.Rows[0]
	if total.Path[0] != TotalLabel {
		t.Errorf("expected total row path, got %v", total.Path)
	}
	if total.ChatCount != "0" {
		t.Errorf("expected chat count \"0\", got %q", total.ChatCount)
	}
	for _, cell := range total.Cells {
		if cell.Display != "" {
			t.Errorf("expected empty stage cell for %s, got %q", cell.Stage, cell.Display)
		}
	}
}

func TestByUsersGroupsAndCounts(t *testing.T) {
	stages := defaultStages()
	raw := stageByValue(stages, "raw")
	active := stageByValue(stages, "active")

	alice := model.User{ID: primitive.NewObjectID(), Username: "alice"}
	work := time.Date(2025, time.August, 5, 10, 0, 0, 0, time.UTC)

	views := []model.ConversationView{
		{
			ID: primitive.NewObjectID(), Title: "Acme", ChatID: 1,
			Stage: model.StageRef{ID: raw.ID, Value: raw.Value, Label: raw.Label},
			User:  &alice, WorkAt: &work,
		},
		{
			ID: primitive.NewObjectID(), Title: "Globex", ChatID: 2,
			Stage: model.StageRef{ID: active.ID, Value: active.Value, Label: active.Label},
			User:  &alice, WorkAt: &work,
		},
		{
			ID: primitive.NewObjectID(), Title: "Orphan", ChatID: 3,
			Stage:  model.StageRef{ID: raw.ID, Value: raw.Value, Label: raw.Label},
			WorkAt: &work,
		},
	}

	svc := NewReportService(&fakeStages{stages: stages}, nil, nil, nil, nil, &fakeViews{views: views}, time.UTC, testCR)

	rep, err := svc.ByUsers(context.Background(), testQuery())
	if err != nil {
		t.Fatal(err)
	}

	// alice header + 2 leaves, Unassigned header + 1 leaf, total.
	if len(rep.Rows) != 6 {
		t.Fatalf("expected 6 rows, got %d", len(rep.Rows))
	}

	var aliceRow, unassignedRow, totalRow *model.ReportRow
	for i := range rep.Rows {
		r := &rep.Rows[i]
		if len(r.Path) != 1 {
			continue
		}
		switch r.Path[0] {
		case "alice":
			aliceRow = r
		case report.UnassignedLabel:
			unassignedRow = r
		case TotalLabel:
			totalRow = r
		}
	}
	if aliceRow == nil || unassignedRow == nil || totalRow == nil {
		t.Fatal("missing expected summary rows")
	}

	if aliceRow.ChatCount != "2 (67%)" {
		t.Errorf("expected alice chat count \"2 (67%%)\", got %q", aliceRow.ChatCount)
	}
	if unassignedRow.ChatCount != "1 (33%)" {
		t.Errorf("expected unassigned chat count \"1 (33%%)\", got %q", unassignedRow.ChatCount)
	}
	if totalRow.ChatCount != "3" {
		t.Errorf("expected total chat count \"3\", got %q", totalRow.ChatCount)
	}

	for _, cell := range aliceRow.Cells {
		switch cell.Stage {
		case "raw", "active":
			if cell.Display != "1 (50%)" {
				t.Errorf("expected alice %s cell \"1 (50%%)\", got %q", cell.Stage, cell.Display)
			}
		default:
			if cell.Display != "" {
				t.Errorf("expected empty %s cell, got %q", cell.Stage, cell.Display)
			}
		}
	}
}

func TestByPeriodsBucketsAndCR(t *testing.T) {
	stages := defaultStages()
	raw := stageByValue(stages, "raw")
	active := stageByValue(stages, "active")

	convID := primitive.NewObjectID()
	aliceID := primitive.NewObjectID()

	events := []model.StageHistory{
		{Stage: raw.ID, Conversation: convID, CreatedAt: time.Date(2025, time.August, 5, 10, 0, 0, 0, time.UTC)},
		{Stage: active.ID, Conversation: convID, CreatedAt: time.Date(2025, time.August, 6, 10, 0, 0, 0, time.UTC)},
	}
	convs := map[primitive.ObjectID]model.Conversation{
		convID: {ID: convID, Title: "Acme", ChatID: 1, Type: model.ChatTypeGroup, User: &aliceID},
	}
	users := map[primitive.ObjectID]model.User{
		aliceID: {ID: aliceID, Username: "alice"},
	}

	svc := NewReportService(
		&fakeStages{stages: stages},
		&fakeHistory{events: events},
		&fakeConvs{convs: convs},
		&fakeUsers{users: users},
		nil,
		&fakeViews{},
		time.UTC,
		testCR,
	)

	q := testQuery()
	q.Period = report.ByWeek
	rep, err := svc.ByPeriods(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}

	// Week 32 2025, alice, Acme.
	if len(rep.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rep.Rows))
	}

	week := rep.Rows[0]
	if week.Path[0] != "Week 32 2025" {
		t.Errorf("expected week row first, got %v", week.Path)
	}
	if week.Date == "" {
		t.Error("expected date range on the period row")
	}
	if week.CR != "100% (100%)" {
		t.Errorf("expected CR \"100%% (100%%)\", got %q", week.CR)
	}

	leaf := rep.Rows[2]
	if len(leaf.Path) != 3 || leaf.Path[1] != "alice" || leaf.Path[2] != "Acme (1)" {
		t.Errorf("unexpected leaf path %v", leaf.Path)
	}
	if leaf.CR != "" {
		t.Errorf("leaves carry no CR, got %q", leaf.CR)
	}

	if rep.Columns[0].Field != "date" || rep.Columns[1].Field != "cr" {
		t.Errorf("unexpected leading columns %v", rep.Columns[:2])
	}
	if len(rep.Columns) != 2+len(stages) {
		t.Errorf("expected %d columns, got %d", 2+len(stages), len(rep.Columns))
	}
}

func TestByPeriodsWeeklyCounts(t *testing.T) {
	stages := defaultStages()
	raw := stageByValue(stages, "raw")
	active := stageByValue(stages, "active")

	convA := primitive.NewObjectID()
	convB := primitive.NewObjectID()
	aliceID := primitive.NewObjectID()

	// Same ISO week: A enters raw then active, B enters raw.
	events := []model.StageHistory{
		{Stage: raw.ID, Conversation: convA, CreatedAt: time.Date(2025, time.August, 4, 10, 0, 0, 0, time.UTC)},
		{Stage: active.ID, Conversation: convA, CreatedAt: time.Date(2025, time.August, 5, 11, 0, 0, 0, time.UTC)},
		{Stage: raw.ID, Conversation: convB, CreatedAt: time.Date(2025, time.August, 6, 9, 0, 0, 0, time.UTC)},
	}
	convs := map[primitive.ObjectID]model.Conversation{
		convA: {ID: convA, Title: "A", ChatID: 1, Type: model.ChatTypeGroup, User: &aliceID},
		convB: {ID: convB, Title: "B", ChatID: 2, Type: model.ChatTypeGroup, User: &aliceID},
	}
	users := map[primitive.ObjectID]model.User{
		aliceID: {ID: aliceID, Username: "alice"},
	}

	svc := NewReportService(
		&fakeStages{stages: stages},
		&fakeHistory{events: events},
		&fakeConvs{convs: convs},
		&fakeUsers{users: users},
		nil,
		&fakeViews{},
		time.UTC,
		testCR,
	)

	rep, err := svc.ByPeriods(context.Background(), testQuery())
	if err != nil {
		t.Fatal(err)
	}

	// Week row, alice row, two conversation leaves.
	if len(rep.Rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rep.Rows))
	}

	week := rep.Rows[0]
	alice := rep.Rows[1]
	if len(alice.Path) != 2 || alice.Path[1] != "alice" {
		t.Fatalf("expected alice branch row second, got %v", alice.Path)
	}

	cellDisplay := func(r model.ReportRow, stage string) string {
		for _, c := range r.Cells {
			if c.Stage == stage {
				return c.Display
			}
		}
		return ""
	}
	for _, r := range []model.ReportRow{week, alice} {
		if got := cellDisplay(r, "raw"); got != "2" {
			t.Errorf("row %v: expected raw cell \"2\", got %q", r.Path, got)
		}
		// Success column carries its qualifier: one active entry, one
		// conversation passing both stages.
		if got := cellDisplay(r, "active"); got != "1 (1)" {
			t.Errorf("row %v: expected active cell \"1 (1)\", got %q", r.Path, got)
		}
		// 1 of 2 raw conversations reached active.
		if r.CR != "50% (50%)" {
			t.Errorf("row %v: expected CR \"50%% (50%%)\", got %q", r.Path, r.CR)
		}
	}
}

func TestByPeriodsOrdersNewestFirst(t *testing.T) {
	stages := defaultStages()
	raw := stageByValue(stages, "raw")
	convID := primitive.NewObjectID()

	events := []model.StageHistory{
		{Stage: raw.ID, Conversation: convID, CreatedAt: time.Date(2025, time.August, 5, 10, 0, 0, 0, time.UTC)},
		{Stage: raw.ID, Conversation: convID, CreatedAt: time.Date(2025, time.August, 19, 10, 0, 0, 0, time.UTC)},
	}
	convs := map[primitive.ObjectID]model.Conversation{
		convID: {ID: convID, Title: "Acme", ChatID: 1, Type: model.ChatTypeGroup},
	}

	svc := NewReportService(
		&fakeStages{stages: stages},
		&fakeHistory{events: events},
		&fakeConvs{convs: convs},
		&fakeUsers{},
		nil,
		&fakeViews{},
		time.UTC,
		testCR,
	)

	rep, err := svc.ByPeriods(context.Background(), testQuery())
	if err != nil {
		t.Fatal(err)
	}

	if rep.Rows[0].Path[0] != "Week 34 2025" {
		t.Errorf("expected newest week first, got %v", rep.Rows[0].Path)
	}
}

func TestByPeriodsKeepsSameTitledChatsApart(t *testing.T) {
	stages := defaultStages()
	raw := stageByValue(stages, "raw")

	convA := primitive.NewObjectID()
	convB := primitive.NewObjectID()

	events := []model.StageHistory{
		{Stage: raw.ID, Conversation: convA, CreatedAt: time.Date(2025, time.August, 5, 10, 0, 0, 0, time.UTC)},
		{Stage: raw.ID, Conversation: convB, CreatedAt: time.Date(2025, time.August, 5, 11, 0, 0, 0, time.UTC)},
	}
	convs := map[primitive.ObjectID]model.Conversation{
		convA: {ID: convA, Title: "Acme", ChatID: 1, Type: model.ChatTypeGroup},
		convB: {ID: convB, Title: "Acme", ChatID: 2, Type: model.ChatTypeGroup},
	}

	svc := NewReportService(
		&fakeStages{stages: stages},
		&fakeHistory{events: events},
		&fakeConvs{convs: convs},
		&fakeUsers{},
		nil,
		&fakeViews{},
		time.UTC,
		testCR,
	)

	rep, err := svc.ByPeriods(context.Background(), testQuery())
	if err != nil {
		t.Fatal(err)
	}

	// Week row, unassigned row, one leaf per chat.
	if len(rep.Rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rep.Rows))
	}
	leaves := map[string]bool{}
	for _, r := range rep.Rows {
		if len(r.Path) == 3 {
			leaves[r.Path[2]] = true
		}
	}
	if !leaves["Acme (1)"] || !leaves["Acme (2)"] {
		t.Errorf("expected one leaf per chat id, got %v", leaves)
	}
}

func TestByPeriodsTypeFilter(t *testing.T) {
	stages := defaultStages()
	raw := stageByValue(stages, "raw")

	group := primitive.NewObjectID()
	private := primitive.NewObjectID()

	events := []model.StageHistory{
		{Stage: raw.ID, Conversation: group, CreatedAt: time.Date(2025, time.August, 5, 10, 0, 0, 0, time.UTC)},
		{Stage: raw.ID, Conversation: private, CreatedAt: time.Date(2025, time.August, 5, 11, 0, 0, 0, time.UTC)},
	}
	convs := map[primitive.ObjectID]model.Conversation{
		group:   {ID: group, Title: "Team", ChatID: -10, Type: model.ChatTypeSupergroup},
		private: {ID: private, Title: "DM", ChatID: 20, Type: model.ChatTypePrivate},
	}

	svc := NewReportService(
		&fakeStages{stages: stages},
		&fakeHistory{events: events},
		&fakeConvs{convs: convs},
		&fakeUsers{},
		nil,
		&fakeViews{},
		time.UTC,
		testCR,
	)

	q := testQuery()
	q.Type = model.ChatTypeGroup
	rep, err := svc.ByPeriods(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}

	for _, r := range rep.Rows {
		if len(r.Path) == 3 && r.Path[2] == "DM (20)" {
			t.Errorf("private chat leaked into the group report: %v", r.Path)
		}
	}
	var found bool
	for _, r := range rep.Rows {
		if len(r.Path) == 3 && r.Path[2] == "Team (-10)" {
			found = true
		}
	}
	if !found {
		t.Error("expected the supergroup chat in the group report")
	}
}
