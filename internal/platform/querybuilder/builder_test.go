package querybuilder

import "testing"

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("p.id", "p.name").
		From("players p").
		Join("JOIN teams t ON t.id = p.team_id").
		Where(Eq("p.role", "Duelist"), IsNull("p.deleted_at")).
		OrderBy("p.current_price DESC", "p.id").
		Limit(10).
		Offset(20).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT p.id, p.name FROM players p JOIN teams t ON t.id = p.team_id WHERE p.role = $1 AND p.deleted_at IS NULL ORDER BY p.current_price DESC, p.id LIMIT 10 OFFSET 20"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 || args[0] != "Duelist" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_ForUpdate(t *testing.T) {
	query, args, err := Select("id", "budget").
		From("league_members").
		Where(Eq("id", "m1")).
		ForUpdate().
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT id, budget FROM league_members WHERE id = $1 FOR UPDATE"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 || args[0] != "m1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_InAndExpr(t *testing.T) {
	query, args, err := Select("id").
		From("matches").
		Where(In("status", []any{"live", "upcoming"}), Expr("played_at >= ?", "2026-01-01")).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT id FROM matches WHERE status IN ($1, $2) AND played_at >= $3"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_ComparisonsAndOr(t *testing.T) {
	query, args, err := Select("id").
		From("matches").
		Where(
			Gte("played_at", "2026-01-01"),
			Lt("sync_attempts", 3),
			NotEq("status", "upcoming"),
			IsNotNull("url"),
			Or(Eq("sync_state", "pending"), Eq("sync_state", "retry")),
		).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT id FROM matches WHERE played_at >= $1 AND sync_attempts < $2 AND status <> $3 AND url IS NOT NULL AND (sync_state = $4 OR sync_state = $5)"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 5 || args[4] != "retry" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_EmptyMatchSets(t *testing.T) {
	query, args, err := Select("id").From("players").Where(InStrings("id", nil), Or()).ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}
	if query != "SELECT id FROM players WHERE 1=0 AND 1=0" || len(args) != 0 {
		t.Fatalf("unexpected query %q args %+v", query, args)
	}
}

func TestExpr_KeepsSurplusPlaceholders(t *testing.T) {
	query, args, err := Select("id").From("sync_runs").Where(Expr("trigger = ? AND details ? 'errors'", "manual")).ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}
	if query != "SELECT id FROM sync_runs WHERE trigger = $1 AND details ? 'errors'" || len(args) != 1 {
		t.Fatalf("unexpected query %q args %+v", query, args)
	}
}

func TestInsertBuilder(t *testing.T) {
	query, args, err := InsertInto("price_history").
		Columns("player_id", "price").
		Values("p1", "12.50").
		Returning("id").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO price_history (player_id, price) VALUES ($1, $2) RETURNING id"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "p1" || args[1] != "12.50" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestUpdateBuilder(t *testing.T) {
	query, args, err := Update("matches").
		Set("processed", true).
		SetExpr("processed_at", "NOW()").
		Where(Eq("id", "m1"), Eq("processed", false)).
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE matches SET processed = $1, processed_at = NOW() WHERE id = $2 AND processed = $3"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[0] != true || args[1] != "m1" || args[2] != false {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder_OnConflict(t *testing.T) {
	tests := []struct {
		name      string
		build     func() *InsertBuilder
		wantQuery string
		wantErr   bool
	}{
		{
			name: "do nothing without target",
			build: func() *InsertBuilder {
				return InsertInto("tournament_teams").Columns("tournament_id", "team_id").Values("t1", "team1").OnConflict().DoNothing()
			},
			wantQuery: "INSERT INTO tournament_teams (tournament_id, team_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		},
		{
			name: "do update with expression",
			build: func() *InsertBuilder {
				return InsertInto("teams").Columns("id", "name", "logo_url").Values("t1", "FNATIC", "").
					OnConflict("(lower(name))").
					DoUpdate("name").
					DoUpdateExpr("logo_url", "COALESCE(NULLIF(EXCLUDED.logo_url, ''), teams.logo_url)").
					Returning("*")
			},
			wantQuery: "INSERT INTO teams (id, name, logo_url) VALUES ($1, $2, $3) ON CONFLICT ((lower(name))) DO UPDATE SET name = EXCLUDED.name, logo_url = COALESCE(NULLIF(EXCLUDED.logo_url, ''), teams.logo_url) RETURNING *",
		},
		{
			name: "update needs a target",
			build: func() *InsertBuilder {
				return InsertInto("teams").Columns("id").Values("t1").OnConflict().DoUpdate("id")
			},
			wantErr: true,
		},
		{
			name: "update without on conflict",
			build: func() *InsertBuilder {
				return InsertInto("teams").Columns("id").Values("t1").DoUpdate("id")
			},
			wantErr: true,
		},
		{
			name: "conflict without action",
			build: func() *InsertBuilder {
				return InsertInto("teams").Columns("id").Values("t1").OnConflict("id")
			},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			query, _, err := tc.build().ToSQL()
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got query %q", query)
				}
				return
			}
			if err != nil {
				t.Fatalf("build insert query: %v", err)
			}
			if query != tc.wantQuery {
				t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", tc.wantQuery, query)
			}
		})
	}
}

func TestInsertBuilder_RowWidthMismatch(t *testing.T) {
	if _, _, err := InsertInto("teams").Columns("id", "name").Values("t1").ToSQL(); err == nil {
		t.Fatalf("expected error for short row")
	}
}

func TestUpdateBuilder_Returning(t *testing.T) {
	query, args, err := Update("league_members").
		SetExpr("budget", "budget - ?", "10.5").
		Where(Eq("id", "m1")).
		Returning("budget").
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}
	if query != "UPDATE league_members SET budget = budget - $1 WHERE id = $2 RETURNING budget" {
		t.Fatalf("unexpected query %q", query)
	}
	if len(args) != 2 || args[0] != "10.5" || args[1] != "m1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertModel(t *testing.T) {
	type row struct {
		ID        string `db:"id"`
		Name      string `db:"name"`
		UpdatedAt string `db:"updated_at,readonly"`
		Ignored   string `db:"-"`
		internal  string
	}

	query, args, err := InsertModel("teams", &row{ID: "t1", Name: "FNATIC", internal: "x"}).
		OnConflict("name").
		DoNothing().
		ToSQL()
	if err != nil {
		t.Fatalf("build insert model: %v", err)
	}

	wantQuery := "INSERT INTO teams (id, name) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "t1" || args[1] != "FNATIC" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertModels(t *testing.T) {
	type statRow struct {
		MatchID  string  `db:"match_id"`
		PlayerID string  `db:"player_id"`
		Points   float64 `db:"fantasy_points"`
	}

	query, args, err := InsertModels("player_match_stats", []statRow{
		{MatchID: "m1", PlayerID: "p1", Points: 12.5},
		{MatchID: "m1", PlayerID: "p2", Points: -3},
	}).ToSQL()
	if err != nil {
		t.Fatalf("build insert models: %v", err)
	}

	wantQuery := "INSERT INTO player_match_stats (match_id, player_id, fantasy_points) VALUES ($1, $2, $3), ($4, $5, $6)"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 6 || args[4] != "p2" {
		t.Fatalf("unexpected args: %+v", args)
	}

	if _, _, err := InsertModels[statRow]("player_match_stats", nil).ToSQL(); err == nil {
		t.Fatalf("expected error for empty batch")
	}
}

func TestInsertModel_Errors(t *testing.T) {
	if _, _, err := InsertModel("t", 42).ToSQL(); err == nil {
		t.Fatalf("expected error for non-struct model")
	}
	var nilRow *struct {
		ID string `db:"id"`
	}
	if _, _, err := InsertModel("t", nilRow).ToSQL(); err == nil {
		t.Fatalf("expected error for nil model")
	}
	if _, _, err := InsertModel("t", struct{ Name string }{}).ToSQL(); err == nil {
		t.Fatalf("expected error for untagged model")
	}
}
