package service

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/alexanderramin/roadmap/internal/domain"
)

// Summary is the dashboard view of the roadmap.
type Summary struct {
	ByType      map[domain.ItemType]int `json:"byType"`
	ByState     map[string]int          `json:"byState"`
	TotalPoints float64                 `json:"totalPoints"`
	Epics       []EpicSummary           `json:"epics"`
	Unscheduled []domain.WorkItem       `json:"unscheduled"`
	Orphans     int                     `json:"orphans"`

	// Velocity is the planned story points per month of the first
	// resourced year; MonthsOfWork is TotalPoints at that velocity.
	VelocityYear string  `json:"velocityYear,omitempty"`
	Velocity     float64 `json:"velocity"`
	MonthsOfWork float64 `json:"monthsOfWork"`
}

type EpicSummary struct {
	Name     string  `json:"name"`
	Points   float64 `json:"points"`
	Start    string  `json:"start"`
	Finish   string  `json:"finish"`
	Features int     `json:"features"`
	Stories  int     `json:"stories"`
}

type reportService struct {
	roadmap    RoadmapService
	resourcing ResourcingService
	md         goldmark.Markdown
}

func NewReportService(roadmap RoadmapService, resourcing ResourcingService) ReportService {
	return &reportService{
		roadmap:    roadmap,
		resourcing: resourcing,
		md:         goldmark.New(goldmark.WithExtensions(extension.Table)),
	}
}

func (s *reportService) Summary(ctx context.Context) Summary {
	items := s.roadmap.List(ctx)
	tree := s.roadmap.Tree(ctx)

	sum := Summary{
		ByType:  make(map[domain.ItemType]int),
		ByState: make(map[string]int),
		Orphans: len(tree.Orphans),
	}
	for _, it := range items {
		sum.ByType[it.Type]++
		sum.ByState[domain.CoalesceStr(it.State, domain.DefaultState)]++
		if it.Type == domain.TypeStory {
			sum.TotalPoints += it.StoryPoints
			if it.StartDate == nil && it.FinishDate == nil {
				sum.Unscheduled = append(sum.Unscheduled, it)
			}
		}
	}
	for _, e := range tree.Epics {
		sum.Epics = append(sum.Epics, EpicSummary{
			Name:     e.Item.Epic,
			Points:   e.Item.StoryPoints,
			Start:    domain.FormatDate(e.Item.StartDate),
			Finish:   domain.FormatDate(e.Item.FinishDate),
			Features: len(e.Features),
			Stories:  len(e.AllStories()),
		})
	}

	if s.resourcing != nil {
		if plan, err := s.resourcing.Personnel(ctx); err == nil {
			if years := plan.Years(); len(years) > 0 {
				sum.VelocityYear = years[0]
				sum.Velocity = plan.Totals(years[0]).PointsPerMonth
				if sum.Velocity > 0 {
					sum.MonthsOfWork = math.Round(sum.TotalPoints/sum.Velocity*10) / 10
				}
			}
		}
	}
	return sum
}

func (s *reportService) Markdown(ctx context.Context) string {
	sum := s.Summary(ctx)
	var b strings.Builder

	b.WriteString("# Roadmap summary\n\n")
	fmt.Fprintf(&b, "- Epics: %d\n", sum.ByType[domain.TypeEpic])
	fmt.Fprintf(&b, "- Features: %d\n", sum.ByType[domain.TypeFeature])
	fmt.Fprintf(&b, "- Stories: %d\n", sum.ByType[domain.TypeStory])
	fmt.Fprintf(&b, "- Tasks: %d\n", sum.ByType[domain.TypeTask])
	fmt.Fprintf(&b, "- Story points: %s\n", formatFloat(sum.TotalPoints))
	if sum.Velocity > 0 {
		fmt.Fprintf(&b, "- Velocity (%s): %s points/month, about %s months of work\n",
			sum.VelocityYear, formatFloat(sum.Velocity), formatFloat(sum.MonthsOfWork))
	}
	if sum.Orphans > 0 {
		fmt.Fprintf(&b, "- Items missing a parent: %d\n", sum.Orphans)
	}

	if len(sum.Epics) > 0 {
		b.WriteString("\n## Epics\n\n")
		b.WriteString("| Epic | Points | Start | Finish | Features | Stories |\n")
		b.WriteString("|---|---:|---|---|---:|---:|\n")
		for _, e := range sum.Epics {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %d | %d |\n",
				escapeCell(e.Name), formatFloat(e.Points), dash(e.Start), dash(e.Finish), e.Features, e.Stories)
		}
	}

	if len(sum.ByState) > 0 {
		b.WriteString("\n## By state\n\n")
		b.WriteString("| State | Items |\n|---|---:|\n")
		for _, state := range sortedStates(sum.ByState) {
			fmt.Fprintf(&b, "| %s | %d |\n", escapeCell(state), sum.ByState[state])
		}
	}

	if len(sum.Unscheduled) > 0 {
		b.WriteString("\n## Unscheduled stories\n\n")
		for _, it := range sum.Unscheduled {
			fmt.Fprintf(&b, "- %s (%s / %s)\n", it.Name(), dash(it.Epic), dash(it.Feature))
		}
	}
	return b.String()
}

func (s *reportService) HTML(ctx context.Context) (string, error) {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(s.Markdown(ctx)), &buf); err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}
	return buf.String(), nil
}
