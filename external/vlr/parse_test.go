package vlr

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/riskibarqy/valorant-fantasy/internal/usecase"
)

func mustDocument(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

const eventsFixture = `
<div class="events-container">
  <div class="events-container-col">
    <div class="wf-label mod-large">upcoming events</div>
    <a class="wf-card mod-flex event-item" href="/event/2760/valorant-masters-santiago-2026">
      <div class="event-item-inner">
        <div class="event-item-title">
          Valorant Masters Santiago 2026
        </div>
        <div class="event-item-desc-item-value">Feb 28—Mar 16</div>
      </div>
    </a>
    <a class="wf-card mod-flex event-item" href="/event/9999/some-open-qualifier">
      <div class="event-item-title">Open Qualifier</div>
    </a>
  </div>
  <div class="events-container-col">
    <div class="wf-label mod-large">ongoing events</div>
    <a class="wf-card mod-flex event-item" href="/event/2682/vct-2026-americas-kickoff?tab=x">
      <div class="event-item-title">VCT 2026: Americas Kickoff</div>
      <div class="event-item-desc-item-value">Jan 15—Feb 8</div>
    </a>
  </div>
  <div class="events-container-col">
    <div class="wf-label mod-large">completed events</div>
    <a class="wf-card mod-flex event-item" href="/event/2283/champions-2025">
      <div class="event-item-title">Valorant Champions 2025</div>
      <div class="event-item-desc-item-value">TBD</div>
    </a>
  </div>
</div>`

func TestParseEventListing(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)
	items := parseEventListing(mustDocument(t, eventsFixture), now)
	if len(items) != 4 {
		t.Fatalf("expected 4 event cards, got %d", len(items))
	}

	byID := make(map[string]tournamentDTO, len(items))
	for _, item := range items {
		byID[item.ExternalID] = item
	}

	masters := byID["2760"]
	if masters.Name != "Valorant Masters Santiago 2026" || masters.Status != "upcoming" {
		t.Fatalf("unexpected masters card: %+v", masters)
	}
	if masters.StartDate == nil || masters.EndDate == nil {
		t.Fatalf("expected masters date range to parse")
	}
	if masters.StartDate.Month() != time.February || masters.StartDate.Day() != 28 || masters.EndDate.Month() != time.March {
		t.Fatalf("unexpected masters dates: %s - %s", masters.StartDate, masters.EndDate)
	}

	kickoff := byID["2682"]
	if kickoff.Status != "ongoing" || kickoff.EventPath != "/event/2682/vct-2026-americas-kickoff" {
		t.Fatalf("unexpected kickoff card: %+v", kickoff)
	}
	if champs := byID["2283"]; champs.Status != "completed" || champs.StartDate != nil {
		t.Fatalf("unexpected completed card: %+v", champs)
	}
}

const matchListFixture = `
<div class="col mod-1">
  <div class="wf-label mod-large">Sat, February 14, 2026 <span class="wf-tag mod-today">Today</span></div>
  <div class="wf-card">
    <a href="/612345/sentinels-vs-g2-esports-vct-2026-americas-kickoff-ur1" class="wf-module-item match-item">
      <div class="match-item-time">7:00 PM</div>
      <div class="match-item-vs">
        <div class="match-item-vs-team"><div class="match-item-vs-team-name"><div class="text-of">Sentinels</div></div><div class="match-item-vs-team-score">2</div></div>
        <div class="match-item-vs-team"><div class="match-item-vs-team-name"><div class="text-of">G2 Esports</div></div><div class="match-item-vs-team-score">1</div></div>
      </div>
      <div class="match-item-eta"><div class="ml"><div class="ml-status">Completed</div><div class="ml-eta">2h ago</div></div></div>
      <div class="match-item-event"><div class="match-item-event-series">Upper Round 1</div></div>
    </a>
    <a href="/612346/nrg-vs-leviatan" class="wf-module-item match-item">
      <div class="match-item-time">9:00 PM</div>
      <div class="match-item-vs-team-name"><div class="text-of">NRG</div></div><div class="match-item-vs-team-score">1</div>
      <div class="match-item-vs-team-name"><div class="text-of">Leviatán</div></div><div class="match-item-vs-team-score">0</div>
      <div class="ml"><div class="ml-status">LIVE</div></div>
    </a>
  </div>
  <div class="wf-label mod-large">Sun, February 15, 2026</div>
  <div class="wf-card">
    <a href="/612347/tbd-vs-tbd" class="wf-module-item match-item">
      <div class="match-item-time">TBD</div>
      <div class="match-item-vs-team-name"><div class="text-of">TBD</div></div><div class="match-item-vs-team-score">–</div>
      <div class="match-item-vs-team-name"><div class="text-of">TBD</div></div><div class="match-item-vs-team-score">–</div>
      <div class="ml"><div class="ml-status">Upcoming</div><div class="ml-eta">1d 2h</div></div>
    </a>
    <a href="/612345/sentinels-vs-g2-esports-vct-2026-americas-kickoff-ur1" class="wf-module-item match-item"></a>
    <a href="/news/4242/patch-notes" class="wf-module-item"></a>
  </div>
</div>`

func TestParseMatchList(t *testing.T) {
	t.Parallel()

	items := parseMatchList(mustDocument(t, matchListFixture))
	if len(items) != 3 {
		t.Fatalf("expected 3 unique match cards, got %d: %+v", len(items), items)
	}

	completed := items[0]
	if completed.ExternalID != "612345" || completed.Status != "completed" {
		t.Fatalf("unexpected first card: %+v", completed)
	}
	if completed.Team1 != "Sentinels" || completed.Team2 != "G2 Esports" || completed.Score1 != 2 || completed.Score2 != 1 {
		t.Fatalf("unexpected teams/scores: %+v", completed)
	}
	if completed.Stage != "Upper Round 1" {
		t.Fatalf("unexpected stage %q", completed.Stage)
	}
	want := time.Date(2026, 2, 14, 19, 0, 0, 0, time.UTC)
	if completed.PlayedAt == nil || !completed.PlayedAt.Equal(want) {
		t.Fatalf("unexpected played at %v, want %s", completed.PlayedAt, want)
	}

	if items[1].Status != "live" || items[1].Team2 != "Leviatán" {
		t.Fatalf("unexpected live card: %+v", items[1])
	}

	upcoming := items[2]
	if upcoming.Status != "upcoming" || upcoming.Score1 != 0 || upcoming.Score2 != 0 {
		t.Fatalf("unexpected upcoming card: %+v", upcoming)
	}
	if upcoming.PlayedAt == nil || upcoming.PlayedAt.Day() != 15 {
		t.Fatalf("expected upcoming card to take the second day header, got %v", upcoming.PlayedAt)
	}
	if err := validateDTO(upcoming); err != nil {
		t.Fatalf("TBD vs TBD card should validate: %v", err)
	}
}

const matchPageFixture = `
<div class="match-header">
  <div class="match-header-date"><div class="moment-tz-convert" data-utc-ts="2026-02-14 19:00:00">Saturday</div></div>
  <a class="match-header-link mod-1"><div class="match-header-link-name mod-1"><div class="wf-title-med">Sentinels</div></div></a>
  <div class="match-header-vs">
    <div class="match-header-vs-score">
      <div class="js-spoiler"><span class="match-header-vs-score-winner js-spoiler">2</span><span class="match-header-vs-score-colon">:</span><span class="match-header-vs-score-loser js-spoiler">1</span></div>
      <div class="match-header-vs-note">final</div>
    </div>
  </div>
  <a class="match-header-link mod-2"><div class="match-header-link-name mod-2"><div class="wf-title-med">G2 Esports</div></div></a>
</div>
<div class="vm-stats">
  <div class="vm-stats-game" data-game-id="all">
    <table class="wf-table-inset mod-overview">
      <thead><tr><th></th><th></th><th title="Rating 2.0">R2.0</th><th>ACS</th><th>K</th><th>D</th><th>A</th><th>+/–</th><th>KAST</th><th>ADR</th><th>HS%</th><th>FK</th><th>FD</th></tr></thead>
      <tbody>
        <tr>
          <td class="mod-player"><div><a href="/player/9/tenz"><div class="text-of">TenZ</div><div class="ge-text-light">SEN</div></a></div></td>
          <td class="mod-agents"><img src="/jett.png" title="Jett" alt="jett"></td>
          <td class="mod-stat"><span class="side mod-both">1.25</span><span class="side mod-t">1.30</span></td>
          <td class="mod-stat"><span class="side mod-both">245</span></td>
          <td class="mod-stat mod-vlr-kills"><span class="side mod-both">45</span></td>
          <td class="mod-stat mod-vlr-deaths"><span class="side mod-both">/ 30 /</span></td>
          <td class="mod-stat"><span class="side mod-both">10</span></td>
          <td class="mod-stat"><span class="side mod-both">+15</span></td>
          <td class="mod-stat"><span class="side mod-both">74%</span></td>
          <td class="mod-stat"><span class="side mod-both">160</span></td>
          <td class="mod-stat"><span class="side mod-both">28%</span></td>
          <td class="mod-stat"><span class="side mod-both">8</span></td>
          <td class="mod-stat"><span class="side mod-both">4</span></td>
        </tr>
        <tr>
          <td class="mod-player"><div class="text-of">zekken</div></td>
          <td class="mod-agents"><img alt="Raze"></td>
          <td class="mod-stat"></td>
          <td class="mod-stat">210</td>
          <td class="mod-stat">38</td>
          <td class="mod-stat">33</td>
          <td class="mod-stat">6</td>
          <td class="mod-stat">+5</td>
          <td class="mod-stat">70%</td>
          <td class="mod-stat">150</td>
          <td class="mod-stat">22%</td>
          <td class="mod-stat">5</td>
          <td class="mod-stat">6</td>
        </tr>
        <tr>
          <td class="mod-player"><div class="text-of">TenZ</div></td>
          <td class="mod-agents"></td>
          <td class="mod-stat">1.00</td><td>1</td><td>1</td><td>1</td><td>1</td><td></td><td></td><td></td><td></td><td></td><td></td>
        </tr>
      </tbody>
    </table>
    <table class="wf-table-inset mod-overview">
      <thead><tr><th></th><th></th><th>R2.0</th><th>ACS</th><th>K</th><th>D</th><th>A</th><th>+/–</th><th>KAST</th><th>ADR</th><th>HS%</th><th>FK</th><th>FD</th></tr></thead>
      <tbody>
        <tr>
          <td class="mod-player"><div class="text-of">leaf</div></td>
          <td class="mod-agents"><img title="Chamber"></td>
          <td>0.95</td><td>190</td><td>30</td><td>36</td><td>5</td><td>-6</td><td>65%</td><td>130</td><td>25%</td><td>3</td><td>5</td>
        </tr>
        <tr>
          <td class="mod-player"><div class="text-of">trent</div></td>
          <td class="mod-agents"><img title="Sova"></td>
          <td>n/a?</td><td>170</td><td>20</td><td>30</td><td>12</td><td>-10</td><td>68%</td><td>120</td><td>20%</td><td>1</td><td>2</td>
        </tr>
      </tbody>
    </table>
  </div>
  <div class="vm-stats-game" data-game-id="123">
    <table class="wf-table-inset mod-overview">
      <thead><tr><th></th><th>K</th></tr></thead>
      <tbody><tr><td class="mod-player"><div class="text-of">mapOnly</div></td><td>99</td></tr></tbody>
    </table>
  </div>
</div>`

func TestParseMatchPage(t *testing.T) {
	t.Parallel()

	page, err := parseMatchPage(mustDocument(t, matchPageFixture))
	if err != nil {
		t.Fatalf("parse match page: %v", err)
	}
	if page.team1 != "Sentinels" || page.team2 != "G2 Esports" {
		t.Fatalf("unexpected teams %q vs %q", page.team1, page.team2)
	}
	if page.status != "completed" || page.score1 != 2 || page.score2 != 1 {
		t.Fatalf("unexpected header: status=%s score=%d-%d", page.status, page.score1, page.score2)
	}
	if len(page.players) != 3 {
		t.Fatalf("expected 3 players (duplicate and bad row dropped), got %d: %+v", len(page.players), page.players)
	}
	if len(page.rowErrors) != 1 || !errors.Is(page.rowErrors[0], usecase.ErrInvalidExternalData) {
		t.Fatalf("expected one invalid row error, got %v", page.rowErrors)
	}

	tenz := page.players[0]
	if tenz.PlayerName != "TenZ" || tenz.TeamName != "Sentinels" || tenz.Agent != "Jett" {
		t.Fatalf("unexpected first row: %+v", tenz)
	}
	if tenz.Rating != 1.25 || tenz.Kills != 45 || tenz.Deaths != 30 || tenz.Assists != 10 {
		t.Fatalf("unexpected combat stats: %+v", tenz)
	}
	if tenz.KAST != 74 || tenz.ADR != 160 || tenz.HeadshotPct != 28 || tenz.FirstKills != 8 || tenz.FirstDeaths != 4 {
		t.Fatalf("unexpected secondary stats: %+v", tenz)
	}

	zekken := page.players[1]
	if zekken.Agent != "Raze" {
		t.Fatalf("expected alt fallback for agent, got %q", zekken.Agent)
	}
	if zekken.Rating != 0.70 {
		t.Fatalf("expected rating derived from KAST, got %v", zekken.Rating)
	}

	if leaf := page.players[2]; leaf.TeamName != "G2 Esports" || leaf.Agent != "Chamber" {
		t.Fatalf("unexpected second table row: %+v", leaf)
	}
}

func TestParseMatchPage_RequiresTwoTeams(t *testing.T) {
	t.Parallel()

	doc := mustDocument(t, `<a class="match-header-link"><div class="match-header-link-name">Solo</div></a>`)
	if _, err := parseMatchPage(doc); !errors.Is(err, usecase.ErrInvalidExternalData) {
		t.Fatalf("expected ErrInvalidExternalData, got %v", err)
	}
}

func TestHeaderScores(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		html   string
		s1, s2 int
	}{
		{
			name: "spoiler spans",
			html: `<div class="match-header-vs-score"><span class="js-spoiler">3</span>:<span class="js-spoiler">2</span></div>`,
			s1:   3, s2: 2,
		},
		{
			name: "single digit divs",
			html: `<div class="match-header-vs-score"><div>1</div><div>:</div><div>2</div></div>`,
			s1:   1, s2: 2,
		},
		{
			name: "implausible series score",
			html: `<div class="match-header-vs-score"><span class="js-spoiler">13</span><span class="js-spoiler">11</span></div>`,
			s1:   0, s2: 0,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc := mustDocument(t, tc.html)
			s1, s2 := headerScores(doc.Find(".match-header-vs-score").First())
			if s1 != tc.s1 || s2 != tc.s2 {
				t.Fatalf("got %d-%d, want %d-%d", s1, s2, tc.s1, tc.s2)
			}
		})
	}
}

func TestParseNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{raw: "1.25", want: 1.25, ok: true},
		{raw: "74%", want: 74, ok: true},
		{raw: "/ 30 /", want: 30, ok: true},
		{raw: "", want: 0, ok: true},
		{raw: "–", want: 0, ok: true},
		{raw: "abc", want: 0, ok: false},
	}
	for _, tc := range tests {
		got, ok := parseNumber(tc.raw)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("parseNumber(%q) = %v,%v want %v,%v", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}

func TestMatchIDFromHref(t *testing.T) {
	t.Parallel()

	tests := []struct {
		href string
		id   string
		ok   bool
	}{
		{href: "/612345/sen-vs-g2", id: "612345", ok: true},
		{href: "/612345", id: "612345", ok: true},
		{href: "/match/612345/sen-vs-g2", id: "612345", ok: true},
		{href: "/news/4242/patch", ok: false},
		{href: "/1234/too-short", ok: false},
	}
	for _, tc := range tests {
		id, ok := matchIDFromHref(tc.href)
		if id != tc.id || ok != tc.ok {
			t.Fatalf("matchIDFromHref(%q) = %q,%v want %q,%v", tc.href, id, ok, tc.id, tc.ok)
		}
	}
}
