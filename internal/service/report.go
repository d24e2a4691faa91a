package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/Sladrus/messenger-server2/internal/model"
	"github.com/Sladrus/messenger-server2/internal/report"
	"github.com/Sladrus/messenger-server2/internal/view"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrDateRangeRequired = errors.New("date range is required")

// TotalLabel is the path of the summary row appended to by-user reports.
const TotalLabel = "Total"

// HistoryQuery carries validated report parameters. The date range is
// required; Type narrows columns and rows to one conversation category.
type HistoryQuery struct {
	From   time.Time
	To     time.Time
	Period report.Granularity
	Type   string
	Tags   []primitive.ObjectID
	Users  []primitive.ObjectID
	Stages []primitive.ObjectID
}

type stageSource interface {
	ListByType(ctx context.Context, convType string) ([]model.Stage, error)
}

type historySource interface {
	ListRange(ctx context.Context, from, to time.Time) ([]model.StageHistory, error)
}

type conversationSource interface {
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.Conversation, error)
}

type userSource interface {
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.User, error)
}

type tagSource interface {
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.Tag, error)
}

type viewSource interface {
	List(ctx context.Context, f view.Filter) ([]model.ConversationView, error)
}

// ReportService converts the stage-transition log and the conversation
// store into hierarchical pivot reports. Rows are synthesized per query and
// never persisted. The period pivot's time axis is the transition log's
// event timestamp.
type ReportService struct {
	stages  stageSource
	history historySource
	convs   conversationSource
	users   userSource
	tags    tagSource
	views   viewSource
	loc     *time.Location
	cr      report.CRConfig
}

func NewReportService(
	stages stageSource,
	history historySource,
	convs conversationSource,
	users userSource,
	tags tagSource,
	views viewSource,
	loc *time.Location,
	cr report.CRConfig,
) *ReportService {
	return &ReportService{
		stages:  stages,
		history: history,
		convs:   convs,
		users:   users,
		tags:    tags,
		views:   views,
		loc:     loc,
		cr:      cr,
	}
}

// annotated is one transition event joined with its conversation and owner.
type annotated struct {
	at        time.Time
	stage     string
	userLabel string
	convLabel string
}

// ByPeriods builds the period pivot: rows keyed [period, user, conversation],
// columns = date-range label + CR + applicable stage values.
func (s *ReportService) ByPeriods(ctx context.Context, q HistoryQuery) (*model.Report, error) {
	if q.To.IsZero() {
		return nil, ErrDateRangeRequired
	}
	gran := q.Period
	if gran != report.ByMonth {
		gran = report.ByWeek
	}

	stages, err := s.stages.ListByType(ctx, q.Type)
	if err != nil {
		return nil, err
	}
	events, err := s.history.ListRange(ctx, q.From, q.To)
	if err != nil {
		return nil, err
	}

	annotatedEvents, err := s.annotate(ctx, events, q.Type)
	if err != nil {
		return nil, err
	}

	// Bucket events by calendar period, newest period first.
	buckets := make(map[report.Period][]annotated)
	for _, e := range annotatedEvents {
		p := report.PeriodOf(e.at, gran, s.loc)
		buckets[p] = append(buckets[p], e)
	}
	periods := make([]report.Period, 0, len(buckets))
	for p := range buckets {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[j].Before(periods[i]) })

	stageValues := make([]string, 0, len(stages))
	for _, st := range stages {
		stageValues = append(stageValues, st.Value)
	}

	pivot := report.NewPivot(stageValues)
	dates := make(map[string]string, len(periods))
	for _, p := range periods {
		label := p.Label()
		pivot.Touch([]string{label})
		dates[label] = p.RangeLabel()
		for _, e := range buckets[p] {
			pivot.Add([]string{label, e.userLabel, e.convLabel}, e.stage)
		}
	}

	rows := make([]model.ReportRow, 0, len(pivot.Rows()))
	for _, r := range pivot.Rows() {
		row := model.ReportRow{
			ID:    pathID(r.Path),
			Path:  r.Path,
			Cells: s.renderCells(r, stageValues),
		}
		if r.Depth() == 1 {
			row.Date = dates[r.Path[0]]
		}
		if !r.IsLeaf() {
			row.CR = report.CR(r, s.cr)
		}
		rows = append(rows, row)
	}

	columns := []model.ReportColumn{
		{Field: "date", HeaderName: "Period"},
		{Field: "cr", HeaderName: "CR"},
	}
	for _, st := range stages {
		columns = append(columns, model.ReportColumn{Field: st.Value, HeaderName: st.Label})
	}

	return &model.Report{Rows: rows, Columns: columns}, nil
}

// ByUsers builds the per-user summary: rows keyed [user, conversation],
// columns = date + stage values + total chat count with percent-of-total.
func (s *ReportService) ByUsers(ctx context.Context, q HistoryQuery) (*model.Report, error) {
	if q.To.IsZero() {
		return nil, ErrDateRangeRequired
	}

	stages, err := s.stages.ListByType(ctx, q.Type)
	if err != nil {
		return nil, err
	}
	views, err := s.views.List(ctx, view.NewFilter().
		WithDateRange(&q.From, &q.To).
		WithType(q.Type))
	if err != nil {
		return nil, err
	}

	byUser := make(map[string][]model.ConversationView)
	for _, v := range views {
		label := report.UnassignedLabel
		if v.User != nil {
			label = v.User.Username
		}
		byUser[label] = append(byUser[label], v)
	}
	userLabels := make([]string, 0, len(byUser))
	for label := range byUser {
		userLabels = append(userLabels, label)
	}
	sort.Strings(userLabels)

	total := len(views)
	rangeLabel := report.FormatDate(q.From, s.loc) + "-" + report.FormatDate(q.To, s.loc)

	var rows []model.ReportRow
	for _, label := range userLabels {
		convs := byUser[label]

		stageCounts := make(map[string]int)
		for _, v := range convs {
			stageCounts[v.Stage.Value]++
		}

		userRow := model.ReportRow{
			ID:        label,
			Path:      []string{label},
			Date:      rangeLabel,
			ChatCount: report.CountPercent(len(convs), total),
		}
		for _, st := range stages {
			display := ""
			if n := stageCounts[st.Value]; n > 0 {
				display = report.CountPercent(n, len(convs))
			}
			userRow.Cells = append(userRow.Cells, model.ReportCell{Stage: st.Value, Display: display})
		}
		rows = append(rows, userRow)

		for _, v := range convs {
			leaf := model.ReportRow{
				ID:   v.ID.Hex(),
				Path: []string{label, v.Title + " (" + strconv.FormatInt(v.ChatID, 10) + ")"},
			}
			if v.WorkAt != nil {
				leaf.Date = report.FormatDate(*v.WorkAt, s.loc)
			}
			for _, st := range stages {
				display := ""
				if st.Value == v.Stage.Value {
					display = "✔"
				}
				leaf.Cells = append(leaf.Cells, model.ReportCell{Stage: st.Value, Display: display})
			}
			rows = append(rows, leaf)
		}
	}

	totalRow := model.ReportRow{
		ID:        "total",
		Path:      []string{TotalLabel},
		ChatCount: strconv.Itoa(total),
	}
	for _, st := range stages {
		n := 0
		for _, v := range views {
			if v.Stage.Value == st.Value {
				n++
			}
		}
		display := ""
		if n > 0 {
			display = report.CountPercent(n, total)
		}
		totalRow.Cells = append(totalRow.Cells, model.ReportCell{Stage: st.Value, Display: display})
	}
	rows = append(rows, totalRow)

	columns := []model.ReportColumn{{Field: "date", HeaderName: "Date"}}
	for _, st := range stages {
		columns = append(columns, model.ReportColumn{Field: st.Value, HeaderName: st.Label})
	}
	columns = append(columns, model.ReportColumn{Field: "chatCount", HeaderName: "Total"})

	return &model.Report{Rows: rows, Columns: columns}, nil
}

// ByTags builds the tag breakdown: rows keyed [tag, user, conversation]
// with chat counts and percent shares. Conversations lacking a requested
// tag are excluded from that tag's subtree.
func (s *ReportService) ByTags(ctx context.Context, q HistoryQuery) (*model.Report, error) {
	if q.To.IsZero() {
		return nil, ErrDateRangeRequired
	}

	f := view.NewFilter().
		WithDateRange(&q.From, &q.To).
		WithType(q.Type).
		WithTags(q.Tags).
		WithUsers(q.Users).
		WithStages(q.Stages)
	views, err := s.views.List(ctx, f)
	if err != nil {
		return nil, err
	}
	tags, err := s.tags.FindByIDs(ctx, q.Tags)
	if err != nil {
		return nil, err
	}

	total := len(views)
	var rows []model.ReportRow

	for _, tagID := range q.Tags {
		tag, ok := tags[tagID]
		if !ok {
			continue
		}

		byUser := make(map[string][]model.ConversationView)
		tagCount := 0
		for _, v := range views {
			if !hasTag(v, tagID) {
				continue
			}
			tagCount++
			label := report.UnassignedLabel
			if v.User != nil {
				label = v.User.Username
			}
			byUser[label] = append(byUser[label], v)
		}

		userLabels := make([]string, 0, len(byUser))
		for label := range byUser {
			userLabels = append(userLabels, label)
		}
		sort.Strings(userLabels)

		rows = append(rows, model.ReportRow{
			ID:        tagID.Hex(),
			Path:      []string{tag.Value},
			ChatCount: strconv.Itoa(tagCount),
			Percent:   report.Percent(tagCount, total),
		})

		for _, label := range userLabels {
			convs := byUser[label]
			rows = append(rows, model.ReportRow{
				ID:        tagID.Hex() + "-" + label,
				Path:      []string{tag.Value, label},
				ChatCount: strconv.Itoa(len(convs)),
				Percent:   report.Percent(len(convs), tagCount),
			})

			for _, v := range convs {
				tagNames := make([]string, 0, len(v.Tags))
				for _, t := range v.Tags {
					tagNames = append(tagNames, t.Value)
				}
				rows = append(rows, model.ReportRow{
					ID:         tagID.Hex() + "-" + label + "-" + v.ID.Hex(),
					Path:       []string{tag.Value, label, strconv.FormatInt(v.ChatID, 10) + " (" + v.ID.Hex() + ")"},
					ChatTitle:  v.Title,
					ChatStatus: v.Stage.Label,
					ChatTags:   joinTags(tagNames),
				})
			}
		}
	}

	columns := []model.ReportColumn{
		{Field: "chatTitle", HeaderName: "Chat"},
		{Field: "chatStatus", HeaderName: "Status"},
		{Field: "chatTags", HeaderName: "Tags"},
		{Field: "chatCount", HeaderName: "Chat count"},
		{Field: "percent", HeaderName: "Percent"},
	}

	return &model.Report{Rows: rows, Columns: columns}, nil
}

// annotate joins events with their conversation and owning user and drops
// events outside the requested conversation-type category or with an
// unresolvable conversation or stage.
func (s *ReportService) annotate(ctx context.Context, events []model.StageHistory, convType string) ([]annotated, error) {
	var convIDs, stageIDs []primitive.ObjectID
	for _, e := range events {
		convIDs = append(convIDs, e.Conversation)
		stageIDs = append(stageIDs, e.Stage)
	}
	convs, err := s.convs.FindByIDs(ctx, convIDs)
	if err != nil {
		return nil, err
	}
	stages, err := s.stages.ListByType(ctx, model.StageTypeAll)
	if err != nil {
		return nil, err
	}
	stageByID := make(map[primitive.ObjectID]model.Stage, len(stages))
	for _, st := range stages {
		stageByID[st.ID] = st
	}

	var userIDs []primitive.ObjectID
	for _, c := range convs {
		if c.User != nil {
			userIDs = append(userIDs, *c.User)
		}
	}
	users, err := s.users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	out := make([]annotated, 0, len(events))
	for _, e := range events {
		conv, ok := convs[e.Conversation]
		if !ok {
			continue
		}
		stage, ok := stageByID[e.Stage]
		if !ok {
			continue
		}
		switch convType {
		case model.ChatTypePrivate:
			if conv.Type != model.ChatTypePrivate {
				continue
			}
		case model.ChatTypeGroup:
			if !conv.IsGroup() {
				continue
			}
		}

		// Titles are not unique across chats, so the leaf label carries
		// the chat id to keep same-titled conversations apart.
		a := annotated{
			at:        e.CreatedAt,
			stage:     stage.Value,
			userLabel: report.UnassignedLabel,
			convLabel: conv.Title + " (" + strconv.FormatInt(conv.ChatID, 10) + ")",
		}
		if conv.User != nil {
			if u, ok := users[*conv.User]; ok {
				a.userLabel = u.Username
			}
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *ReportService) renderCells(r *report.Row, stageValues []string) []model.ReportCell {
	cells := make([]model.ReportCell, 0, len(stageValues))
	for _, v := range stageValues {
		display := ""
		switch {
		case !r.IsLeaf() && v == s.cr.Success:
			display = report.SuccessCell(r, s.cr)
		case r.Count(v) > 0:
			display = strconv.Itoa(r.Count(v))
		}
		cells = append(cells, model.ReportCell{Stage: v, Display: display})
	}
	return cells
}

func hasTag(v model.ConversationView, tagID primitive.ObjectID) bool {
	for _, t := range v.Tags {
		if t.ID == tagID {
			return true
		}
	}
	return false
}

func joinTags(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ","
		}
		out += n
	}
	return out
}

func pathID(path []string) string {
	out := ""
	for i, p := range path {
		if i > 0 {
			out += "/"
		}
		out += p
	}
	return out
}
