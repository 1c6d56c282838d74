package vlr

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/riskibarqy/valorant-fantasy/internal/platform/logging"
	"github.com/riskibarqy/valorant-fantasy/internal/usecase"
)

const defaultEventsPath = "/events/?tier=60"

type MetadataConfig struct {
	ClientConfig
	EventsPath string
	// EventIDs restricts the listing to these events. Targets missing from
	// the listing are fetched from their own event page.
	EventIDs []string
}

// MetadataClient reads the event listing and per-event match lists.
type MetadataClient struct {
	client     *Client
	eventsPath string
	eventIDs   []string
	logger     *logging.Logger
	now        func() time.Time
}

func NewMetadataClient(cfg MetadataConfig) *MetadataClient {
	client := NewClient(cfg.ClientConfig)
	eventsPath := strings.TrimSpace(cfg.EventsPath)
	if eventsPath == "" {
		eventsPath = defaultEventsPath
	}

	ids := make([]string, 0, len(cfg.EventIDs))
	for _, id := range cfg.EventIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	return &MetadataClient{
		client:     client,
		eventsPath: eventsPath,
		eventIDs:   ids,
		logger:     client.logger,
		now:        time.Now,
	}
}

func (c *MetadataClient) FetchTournaments(ctx context.Context) ([]usecase.ExternalTournament, error) {
	doc, err := c.client.fetchDocument(ctx, c.eventsPath)
	if err != nil {
		return nil, fmt.Errorf("fetch events listing: %w", err)
	}

	listed := parseEventListing(doc, c.now().UTC())
	targets := make(map[string]struct{}, len(c.eventIDs))
	for _, id := range c.eventIDs {
		targets[id] = struct{}{}
	}

	out := make([]usecase.ExternalTournament, 0, len(listed))
	found := make(map[string]struct{}, len(listed))
	for _, item := range listed {
		if len(targets) > 0 {
			if _, ok := targets[item.ExternalID]; !ok {
				continue
			}
		}
		if _, dup := found[item.ExternalID]; dup {
			continue
		}
		if err := validateDTO(item); err != nil {
			c.logger.WarnContext(ctx, "drop event card", "external_id", item.ExternalID, "error", err)
			continue
		}
		found[item.ExternalID] = struct{}{}
		out = append(out, item.toExternal())
	}

	for _, id := range c.eventIDs {
		if _, ok := found[id]; ok {
			continue
		}
		item, err := c.fetchEventPage(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.WarnContext(ctx, "fetch target event failed", "external_id", id, "error", err)
			continue
		}
		found[id] = struct{}{}
		out = append(out, item.toExternal())
	}

	c.logger.InfoContext(ctx, "vlr events fetched", "listed", len(listed), "returned", len(out))
	return out, nil
}

func (c *MetadataClient) fetchEventPage(ctx context.Context, eventID string) (tournamentDTO, error) {
	doc, err := c.client.fetchDocument(ctx, "/event/"+eventID)
	if err != nil {
		return tournamentDTO{}, err
	}
	item := parseEventPage(doc, eventID, c.now().UTC())
	if err := validateDTO(item); err != nil {
		return tournamentDTO{}, err
	}
	return item, nil
}

func (c *MetadataClient) FetchMatches(ctx context.Context, tournamentExternalID string) ([]usecase.ExternalMatch, error) {
	eventID := strings.TrimSpace(tournamentExternalID)
	if eventID == "" {
		return nil, fmt.Errorf("%w: tournament external id is required", usecase.ErrInvalidExternalData)
	}

	path := "/event/matches/" + eventID + "/?series_id=all&group=all"
	doc, err := c.client.fetchDocument(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("fetch matches event=%s: %w", eventID, err)
	}

	parsed := parseMatchList(doc)
	out := make([]usecase.ExternalMatch, 0, len(parsed))
	var live, completed int
	for _, item := range parsed {
		if err := validateDTO(item); err != nil {
			c.logger.WarnContext(ctx, "drop match card", "event_id", eventID, "external_id", item.ExternalID, "error", err)
			continue
		}
		switch item.Status {
		case "live":
			live++
		case "completed":
			completed++
		}
		out = append(out, item.toExternal())
	}

	c.logger.InfoContext(ctx, "vlr matches fetched",
		"event_id", eventID,
		"matches", len(out),
		"live", live,
		"completed", completed,
	)
	return out, nil
}

func parseEventListing(doc *goquery.Document, now time.Time) []tournamentDTO {
	out := make([]tournamentDTO, 0, 32)
	doc.Find("div.events-container-col").Each(func(_ int, section *goquery.Selection) {
		label := section.Find(".wf-label").First()
		if label.Length() == 0 {
			return
		}
		status := sectionStatus(label.Text())

		section.Find("a.event-item").Each(func(_ int, card *goquery.Selection) {
			href, _ := card.Attr("href")
			id, ok := eventIDFromHref(href)
			if !ok {
				return
			}
			name := firstLine(card.Find(".event-item-title").First())
			start, end := parseDateRange(card.Find(".event-item-desc-item-value").First().Text(), name, now)
			out = append(out, tournamentDTO{
				ExternalID: id,
				Name:       name,
				Status:     status,
				EventPath:  cleanHref(href),
				StartDate:  start,
				EndDate:    end,
			})
		})
	})
	return out
}

func sectionStatus(label string) string {
	label = strings.ToLower(label)
	switch {
	case strings.Contains(label, "upcoming"):
		return "upcoming"
	case strings.Contains(label, "ongoing"):
		return "ongoing"
	default:
		return "completed"
	}
}

// parseEventPage reads an event overview page. The page has no status
// label, so status follows the event dates.
func parseEventPage(doc *goquery.Document, eventID string, now time.Time) tournamentDTO {
	name := collapseSpaces(doc.Find(".event-header .wf-title").First().Text())
	if name == "" {
		name = collapseSpaces(doc.Find("h1.wf-title").First().Text())
	}

	var start, end *time.Time
	doc.Find(".event-desc-item").EachWithBreak(func(_ int, item *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(item.Find(".event-desc-item-label").Text()), "date") {
			return true
		}
		start, end = parseDateRange(item.Find(".event-desc-item-value").Text(), name, now)
		return false
	})

	status := "upcoming"
	switch {
	case end != nil && now.After(end.Add(24*time.Hour)):
		status = "completed"
	case start != nil && !now.Before(*start):
		status = "ongoing"
	}

	return tournamentDTO{
		ExternalID: eventID,
		Name:       name,
		Status:     status,
		EventPath:  "/event/" + eventID,
		StartDate:  start,
		EndDate:    end,
	}
}

var matchDayLayouts = []string{"Mon, January 2, 2006", "Monday, January 2, 2006", "Mon, Jan 2, 2006"}

// parseMatchList walks the match list in document order so each card picks
// up the day header above it.
func parseMatchList(doc *goquery.Document) []matchDTO {
	out := make([]matchDTO, 0, 64)
	seen := make(map[string]struct{}, 64)
	var day *time.Time

	doc.Find(".wf-label.mod-large, a.wf-module-item").Each(func(_ int, sel *goquery.Selection) {
		if sel.HasClass("wf-label") {
			day = parseMatchDay(sel)
			return
		}

		href, _ := sel.Attr("href")
		id, ok := matchIDFromHref(href)
		if !ok {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}

		item := matchDTO{
			ExternalID: id,
			URL:        cleanHref(href),
			Status:     cardStatus(sel),
			Stage:      collapseSpaces(sel.Find(".match-item-event-series").First().Text()),
		}

		names := sel.Find(".match-item-vs-team-name")
		if names.Length() >= 2 {
			item.Team1 = firstLine(names.Eq(0))
			item.Team2 = firstLine(names.Eq(1))
		}
		scores := sel.Find(".match-item-vs-team-score")
		if scores.Length() >= 2 && item.Status != "upcoming" {
			item.Score1, _ = parseScore(scores.Eq(0).Text())
			item.Score2, _ = parseScore(scores.Eq(1).Text())
		}
		item.PlayedAt = cardTime(day, firstLine(sel.Find(".match-item-time").First()))

		out = append(out, item)
	})
	return out
}

func cardStatus(card *goquery.Selection) string {
	status := strings.ToUpper(strings.TrimSpace(card.Find(".ml-status").First().Text()))
	switch {
	case strings.Contains(status, "LIVE"):
		return "live"
	case strings.Contains(status, "COMPLETED"):
		return "completed"
	}
	if strings.Contains(card.Find(".ml-eta").First().Text(), "ago") {
		return "completed"
	}
	return "upcoming"
}

func parseMatchDay(label *goquery.Selection) *time.Time {
	clone := label.Clone()
	clone.Find("span").Remove()
	text := collapseSpaces(clone.Text())
	for _, layout := range matchDayLayouts {
		if parsed, err := time.Parse(layout, text); err == nil {
			parsed = parsed.UTC()
			return &parsed
		}
	}
	return nil
}

func cardTime(day *time.Time, clock string) *time.Time {
	if day == nil {
		return nil
	}
	at := *day
	if parsed, err := time.Parse("3:04 PM", strings.ToUpper(strings.TrimSpace(clock))); err == nil {
		at = at.Add(time.Duration(parsed.Hour())*time.Hour + time.Duration(parsed.Minute())*time.Minute)
	}
	return &at
}
